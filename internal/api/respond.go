package api

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/omii/storefront/internal/domain/order"
	"github.com/omii/storefront/internal/domain/product"
	"github.com/omii/storefront/internal/domain/promo"
)

// writeJSON streams a jx-encoded body with the given status code.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the shared {code, message} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// writeDomainError maps domain errors to HTTP responses. Promo rejections
// surface as 422 with an inline message; lifecycle violations as 409.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var itErr *order.IllegalTransitionError

	switch {
	case errors.Is(err, promo.ErrInvalidPromo):
		writeError(w, http.StatusUnprocessableEntity, "invalid promo code")
	case errors.Is(err, promo.ErrExpired):
		writeError(w, http.StatusUnprocessableEntity, "promo code expired")
	case errors.Is(err, promo.ErrMinSubtotal):
		writeError(w, http.StatusUnprocessableEntity, "cart subtotal below promo minimum")
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusUnprocessableEntity, "product not found")
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.As(err, &itErr):
		writeError(w, http.StatusConflict, itErr.Error())
	case errors.Is(err, order.ErrConflict):
		writeError(w, http.StatusConflict, "order was modified concurrently, retry")
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- Shared field encoders ---

func encDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Raw([]byte(d.String()))
}

func encTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func encOptStr(e *jx.Encoder, field, v string) {
	if v == "" {
		return
	}
	e.FieldStart(field)
	e.Str(v)
}
