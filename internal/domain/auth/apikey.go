// Package auth defines API key identities and their lookup.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrKeyNotFound is returned when no identity matches the presented key.
var ErrKeyNotFound = errors.New("api key not found")

// Role is the dashboard role an API key acts as.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleDelivery Role = "delivery"
	RoleSupport  Role = "support"
)

// Staff reports whether the role may see and mutate orders it does not own.
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleSupport || r == RoleDelivery
}

// Identity holds the account data for a validated API key. CustomerID scopes
// cart and order access; B2B selects the pricing tier.
type Identity struct {
	ID         string
	KeyHash    string
	Name       string
	CustomerID string
	Role       Role
	B2B        bool
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Identity, error)
}

// HashKey computes the HMAC-SHA256 hex digest of an API key under the given
// pepper. Both the seeder and the request authenticator must use this.
func HashKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}
