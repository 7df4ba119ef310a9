// Package order models an order's lifecycle as an append-only timeline of
// status events. The order's current status always equals the status of the
// last timeline event; every status mutation appends exactly one event and
// sets the status in the same update.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a referenced order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrConflict is returned when an optimistic update lost a race with a
	// concurrent writer.
	ErrConflict = errors.New("order was modified concurrently")
	// ErrEmptyItems is returned when an order is created without line items.
	ErrEmptyItems = errors.New("items required")
)

// IllegalTransitionError indicates a status change that the lifecycle state
// machine does not permit.
type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s", e.From, e.To)
}

// PaymentMethod enumerates the supported payment options.
type PaymentMethod string

const (
	PaymentCOD        PaymentMethod = "cod"
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetbanking PaymentMethod = "netbanking"
)

// PaymentStatus enumerates the payment settlement states.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Address is the shipping destination captured at checkout.
type Address struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone"`
}

// LineItem is a snapshot of a cart line at checkout time. UnitPrice is the
// historical price the customer paid, independent of later catalog changes.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// TimelineEvent is one immutable entry in an order's audit trail. Events are
// appended in order and never removed or reordered.
type TimelineEvent struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Location  string    `json:"location,omitempty"`
}

// Order is a completed checkout with its pricing breakdown and lifecycle
// timeline. Version supports optimistic concurrency: customer-facing and
// staff-facing mutations may race on the same order.
type Order struct {
	ID                  string
	CustomerID          string
	Items               []LineItem
	Subtotal            decimal.Decimal
	Discount            decimal.Decimal
	ShippingCost        decimal.Decimal
	Total               decimal.Decimal
	PromoCode           string
	PaymentMethod       PaymentMethod
	PaymentStatus       PaymentStatus
	Status              Status
	ShippingAddress     Address
	DeliveryPartnerID   string
	DeliveryPartnerName string
	Timeline            []TimelineEvent
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int64
}

// Repository defines persistence operations for orders. Update must match
// the stored version and increment it, returning ErrConflict on mismatch.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ByCustomer(ctx context.Context, customerID string) ([]Order, error)
	ByDeliveryPartner(ctx context.Context, partnerID string) ([]Order, error)
	All(ctx context.Context) ([]Order, error)
}
