package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPlaced, StatusConfirmed, true},
		{StatusConfirmed, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusOutForDelivery, true},
		{StatusOutForDelivery, StatusDelivered, true},

		// Cancellation from any non-terminal state.
		{StatusPlaced, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},
		{StatusOutForDelivery, StatusCancelled, true},

		// Skipping ahead is not allowed.
		{StatusPlaced, StatusShipped, false},
		{StatusPlaced, StatusDelivered, false},
		{StatusConfirmed, StatusOutForDelivery, false},

		// No going back.
		{StatusShipped, StatusProcessing, false},
		{StatusConfirmed, StatusPlaced, false},

		// Terminal states are final.
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPlaced, false},
		{StatusDelivered, StatusDelivered, false},

		// Unknown targets are rejected.
		{StatusPlaced, Status("lost"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPlaced.Terminal())
	assert.False(t, StatusOutForDelivery.Terminal())
}

func TestValid(t *testing.T) {
	assert.True(t, StatusOutForDelivery.Valid())
	assert.False(t, Status("refunded").Valid())
	assert.False(t, Status("").Valid())
}
