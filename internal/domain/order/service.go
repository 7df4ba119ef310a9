package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateRequest holds the input for creating an order from a completed cart.
// Items carry the historical unit prices snapshotted by the cart; Discount
// is the amount the cart's applied promo yielded at checkout.
type CreateRequest struct {
	CustomerID    string
	Items         []LineItem
	Discount      decimal.Decimal
	PromoCode     string
	PaymentMethod PaymentMethod
	Address       Address
	Notes         string
}

// Service encapsulates order creation and lifecycle mutations.
type Service struct {
	orders   Repository
	shipping ShippingPolicy

	now   func() time.Time
	newID func() string
}

// NewService creates an order Service with the given repository and
// shipping policy.
func NewService(orders Repository, shipping ShippingPolicy) *Service {
	return &Service{
		orders:   orders,
		shipping: shipping,
		now:      time.Now,
		newID:    func() string { return "ORD-" + uuid.New().String() },
	}
}

// Create builds and persists an order in status placed with a single seeded
// timeline event. Total = subtotal - discount + shipping, where shipping
// follows the configured policy against the discounted total.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, errors.Errorf("quantity must be greater than 0 for product %s", item.ProductID)
		}
	}

	subtotal := decimal.Zero
	for _, item := range req.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	discount := decimal.Min(req.Discount, subtotal)
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	discounted := subtotal.Sub(discount)
	shippingCost := s.shipping.CostFor(discounted)
	total := discounted.Add(shippingCost).Round(2)

	now := s.now()
	paymentStatus := PaymentPaid
	if req.PaymentMethod == PaymentCOD {
		paymentStatus = PaymentPending
	}

	o := &Order{
		ID:              s.newID(),
		CustomerID:      req.CustomerID,
		Items:           req.Items,
		Subtotal:        subtotal.Round(2),
		Discount:        discount.Round(2),
		ShippingCost:    shippingCost,
		Total:           total,
		PromoCode:       req.PromoCode,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   paymentStatus,
		Status:          StatusPlaced,
		ShippingAddress: req.Address,
		Timeline: []TimelineEvent{{
			Status:    StatusPlaced,
			Timestamp: now,
			Message:   "Order placed successfully",
		}},
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// AdvanceStatus moves the order to the next status, appending exactly one
// timeline event carrying the new status. Illegal transitions are rejected;
// unknown IDs fail with ErrNotFound.
func (s *Service) AdvanceStatus(ctx context.Context, id string, next Status, message, location string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransition(next) {
		return nil, &IllegalTransitionError{From: o.Status, To: next}
	}

	now := s.now()
	o.Status = next
	o.UpdatedAt = now
	o.Timeline = append(o.Timeline, TimelineEvent{
		Status:    next,
		Timestamp: now,
		Message:   message,
		Location:  location,
	})

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// AssignDeliveryPartner sets the order's delivery assignee and records a
// same-status timeline event so the assignment shows up in the audit trail.
func (s *Service) AssignDeliveryPartner(ctx context.Context, id, partnerID, partnerName string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o.DeliveryPartnerID = partnerID
	o.DeliveryPartnerName = partnerName
	o.UpdatedAt = now
	o.Timeline = append(o.Timeline, TimelineEvent{
		Status:    o.Status,
		Timestamp: now,
		Message:   "Delivery partner assigned: " + partnerName,
	})

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ByID returns a single order.
func (s *Service) ByID(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// ByCustomer returns the customer's orders. Absence yields an empty slice.
func (s *Service) ByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return s.orders.ByCustomer(ctx, customerID)
}

// ByDeliveryPartner returns the orders assigned to a delivery partner.
func (s *Service) ByDeliveryPartner(ctx context.Context, partnerID string) ([]Order, error) {
	return s.orders.ByDeliveryPartner(ctx, partnerID)
}

// All returns every order.
func (s *Service) All(ctx context.Context) ([]Order, error) {
	return s.orders.All(ctx)
}
