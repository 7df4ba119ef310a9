package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/omii/storefront/internal/domain/cart"
	"github.com/omii/storefront/internal/domain/product"
)

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type applyPromoRequest struct {
	Code string `json:"code"`
}

// getCart returns the caller's cart with derived totals.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	st, err := h.carts.Get(r.Context(), id.CustomerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.writeCart(w, st)
}

// addCartItem resolves the product at the caller's pricing tier and adds it
// to the cart, aggregating quantities per product.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "quantity must be greater than 0")
		return
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	tier := product.TierFor(id.B2B)
	st, err := h.carts.AddLine(r.Context(), id.CustomerID, cart.Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice(tier),
		Quantity:  req.Quantity,
		Image:     p.Image,
		Category:  p.Category,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.writeCart(w, st)
}

// setCartItemQuantity replaces a line's quantity; zero or less removes it.
func (h *Handler) setCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := h.carts.SetQuantity(r.Context(), id.CustomerID, r.PathValue("id"), req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.writeCart(w, st)
}

// removeCartItem deletes a line. Unknown line IDs are a no-op.
func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	st, err := h.carts.RemoveLine(r.Context(), id.CustomerID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.writeCart(w, st)
}

// applyPromo validates and applies a promo code to the caller's cart.
func (h *Handler) applyPromo(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req applyPromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := h.carts.ApplyPromo(r.Context(), id.CustomerID, req.Code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.writeCart(w, st)
}

// removePromo clears the applied promo.
func (h *Handler) removePromo(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	st, err := h.carts.RemovePromo(r.Context(), id.CustomerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.writeCart(w, st)
}

// writeCart encodes the cart state plus its derived totals.
func (h *Handler) writeCart(w http.ResponseWriter, st *cart.State) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("lines")
		e.ArrStart()
		for _, l := range st.Lines {
			e.ObjStart()
			e.FieldStart("id")
			e.Str(l.ID)
			e.FieldStart("productId")
			e.Str(l.ProductID)
			e.FieldStart("name")
			e.Str(l.Name)
			e.FieldStart("unitPrice")
			encDecimal(e, l.UnitPrice)
			e.FieldStart("quantity")
			e.Int(l.Quantity)
			if l.Image != "" {
				e.FieldStart("image")
				e.Str(h.imageBaseURL + l.Image)
			}
			encOptStr(e, "category", l.Category)
			e.ObjEnd()
		}
		e.ArrEnd()

		if st.AppliedPromo != nil {
			e.FieldStart("appliedPromo")
			e.Str(st.AppliedPromo.Code)
		}

		e.FieldStart("itemCount")
		e.Int(st.ItemCount())
		e.FieldStart("subtotal")
		encDecimal(e, st.Subtotal())
		e.FieldStart("discount")
		encDecimal(e, st.DiscountAmount())
		e.FieldStart("total")
		encDecimal(e, st.FinalTotal())
		e.ObjEnd()
	})
}
