package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/omii/storefront/internal/domain/product"
)

// listProducts returns the full catalog with unit prices resolved for the
// caller's pricing tier.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	tier := product.TierFor(id.B2B)

	products, err := h.products.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, p := range products {
			h.encProduct(e, p, tier)
		}
		e.ArrEnd()
	})
}

// getProduct returns a single product by ID.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	tier := product.TierFor(id.B2B)

	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encProduct(e, *p, tier)
	})
}

// encProduct writes one product object. price is the tier-resolved unit
// price; listPrice carries the standard price so B2B callers can show the
// strike-through.
func (h *Handler) encProduct(e *jx.Encoder, p product.Product, tier product.Tier) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	encDecimal(e, p.UnitPrice(tier))
	e.FieldStart("listPrice")
	encDecimal(e, p.Price)
	if tier == product.TierBulk && p.HasBulkPricing() {
		e.FieldStart("minBulkQuantity")
		e.Int(p.MinBulkQuantity)
	}
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("image")
	e.Str(h.imageBaseURL + p.Image)
	e.ObjEnd()
}
