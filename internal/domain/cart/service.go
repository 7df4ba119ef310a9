package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omii/storefront/internal/domain/promo"
)

// Service owns cart mutations for all owners. Every mutation persists the
// resulting state through the Store as a best-effort side effect: a failed
// save is logged and the in-memory mutation still succeeds.
type Service struct {
	store  Store
	promos promo.Validator
	lg     *zap.Logger

	newID func() string
}

// NewService creates a cart Service over the given store and promo validator.
func NewService(store Store, promos promo.Validator, lg *zap.Logger) *Service {
	return &Service{
		store:  store,
		promos: promos,
		lg:     lg,
		newID:  func() string { return uuid.New().String() },
	}
}

// Get returns the owner's current cart state.
func (s *Service) Get(ctx context.Context, owner string) (*State, error) {
	return s.store.Load(ctx, owner)
}

// AddLine adds an item to the owner's cart. If a line with the same product
// already exists its quantity is incremented; otherwise a new line is
// appended with a freshly generated ID. Quantity is not bounded against
// stock here: stock checks belong to the catalog surface.
func (s *Service) AddLine(ctx context.Context, owner string, item Line) (*State, error) {
	st, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	merged := false
	for i := range st.Lines {
		if st.Lines[i].ProductID == item.ProductID {
			st.Lines[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		item.ID = s.newID()
		st.Lines = append(st.Lines, item)
	}

	s.persist(ctx, owner, st)
	return st, nil
}

// RemoveLine deletes the line with the given ID. A missing ID is a no-op,
// not an error.
func (s *Service) RemoveLine(ctx context.Context, owner, lineID string) (*State, error) {
	st, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	st.Lines = deleteLine(st.Lines, lineID)
	s.persist(ctx, owner, st)
	return st, nil
}

// SetQuantity replaces the quantity of the line with the given ID. A
// quantity of zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, owner, lineID string, qty int) (*State, error) {
	if qty <= 0 {
		return s.RemoveLine(ctx, owner, lineID)
	}

	st, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	for i := range st.Lines {
		if st.Lines[i].ID == lineID {
			st.Lines[i].Quantity = qty
			break
		}
	}

	s.persist(ctx, owner, st)
	return st, nil
}

// ApplyPromo validates the code against the current subtotal and stores the
// matched rule on success. Exactly one promo is applied at a time; a later
// successful application replaces the prior one. On validation failure the
// cart state is unchanged.
func (s *Service) ApplyPromo(ctx context.Context, owner, code string) (*State, error) {
	st, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	rule, err := s.promos.Validate(ctx, code, st.Subtotal())
	if err != nil {
		return nil, err
	}

	st.AppliedPromo = rule
	s.persist(ctx, owner, st)
	return st, nil
}

// RemovePromo clears the applied promo, if any.
func (s *Service) RemovePromo(ctx context.Context, owner string) (*State, error) {
	st, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	st.AppliedPromo = nil
	s.persist(ctx, owner, st)
	return st, nil
}

// Clear empties the owner's cart and removes the applied promo. Used after
// a successful checkout.
func (s *Service) Clear(ctx context.Context, owner string) error {
	if err := s.store.Delete(ctx, owner); err != nil {
		s.lg.Warn("cart clear failed",
			zap.String("owner", owner),
			zap.Error(err),
		)
	}
	return nil
}

// persist saves the state best-effort. Failures are logged, never returned:
// the in-memory mutation already happened and must not be rolled back.
func (s *Service) persist(ctx context.Context, owner string, st *State) {
	if err := s.store.Save(ctx, owner, st); err != nil {
		s.lg.Warn("cart save failed",
			zap.String("owner", owner),
			zap.Int("lines", len(st.Lines)),
			zap.Error(err),
		)
	}
}

func deleteLine(lines []Line, id string) []Line {
	out := lines[:0]
	for _, l := range lines {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}
