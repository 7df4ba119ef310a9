package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/omii/storefront/internal/domain/auth"
	"github.com/omii/storefront/internal/domain/order"
)

type checkoutRequest struct {
	PaymentMethod string        `json:"paymentMethod"`
	Address       order.Address `json:"address"`
	Notes         string        `json:"notes"`
}

type statusRequest struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Location string `json:"location"`
}

type assignRequest struct {
	PartnerID   string `json:"partnerId"`
	PartnerName string `json:"partnerName"`
}

// checkout creates an order from the caller's current cart and clears the
// cart on success. Cart state stays independent of the order afterwards.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	method := order.PaymentMethod(req.PaymentMethod)
	switch method {
	case order.PaymentCOD, order.PaymentCard, order.PaymentUPI, order.PaymentNetbanking:
	default:
		writeError(w, http.StatusUnprocessableEntity, "unknown payment method")
		return
	}

	st, err := h.carts.Get(r.Context(), id.CustomerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]order.LineItem, len(st.Lines))
	for i, l := range st.Lines {
		items[i] = order.LineItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Image:     l.Image,
		}
	}

	promoCode := ""
	if st.AppliedPromo != nil {
		promoCode = st.AppliedPromo.Code
	}

	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		CustomerID:    id.CustomerID,
		Items:         items,
		Discount:      st.DiscountAmount(),
		PromoCode:     promoCode,
		PaymentMethod: method,
		Address:       req.Address,
		Notes:         req.Notes,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	_ = h.carts.Clear(r.Context(), id.CustomerID)

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encOrder(e, o)
	})
}

// listOrders returns orders scoped by role: customers see their own,
// delivery partners see their assignments, admin and support see all.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var (
		orders []order.Order
		err    error
	)
	switch id.Role {
	case auth.RoleAdmin, auth.RoleSupport:
		orders, err = h.orders.All(r.Context())
	case auth.RoleDelivery:
		orders, err = h.orders.ByDeliveryPartner(r.Context(), id.CustomerID)
	default:
		orders, err = h.orders.ByCustomer(r.Context(), id.CustomerID)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			encOrder(e, &orders[i])
		}
		e.ArrEnd()
	})
}

// getOrder returns a single order. Customers may only read their own.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	o, err := h.orders.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !id.Role.Staff() && o.CustomerID != id.CustomerID {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encOrder(e, o)
	})
}

// advanceOrderStatus applies a lifecycle transition. Admin and delivery
// roles only.
func (h *Handler) advanceOrderStatus(w http.ResponseWriter, r *http.Request) {
	if requireStaff(w, r, auth.RoleAdmin, auth.RoleDelivery) == nil {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	next := order.Status(req.Status)
	if !next.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "unknown status")
		return
	}

	o, err := h.orders.AdvanceStatus(r.Context(), r.PathValue("id"), next, req.Message, req.Location)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encOrder(e, o)
	})
}

// assignDeliveryPartner sets the order's delivery assignee. Admin only.
func (h *Handler) assignDeliveryPartner(w http.ResponseWriter, r *http.Request) {
	if requireStaff(w, r, auth.RoleAdmin) == nil {
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PartnerID == "" {
		writeError(w, http.StatusUnprocessableEntity, "partnerId required")
		return
	}

	o, err := h.orders.AssignDeliveryPartner(r.Context(), r.PathValue("id"), req.PartnerID, req.PartnerName)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encOrder(e, o)
	})
}

// encOrder writes the full order representation including the timeline.
func encOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("customerId")
	e.Str(o.CustomerID)

	e.FieldStart("items")
	e.ArrStart()
	for _, item := range o.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(item.ProductID)
		e.FieldStart("name")
		e.Str(item.Name)
		e.FieldStart("unitPrice")
		encDecimal(e, item.UnitPrice)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		encOptStr(e, "image", item.Image)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("subtotal")
	encDecimal(e, o.Subtotal)
	e.FieldStart("discount")
	encDecimal(e, o.Discount)
	e.FieldStart("shippingCost")
	encDecimal(e, o.ShippingCost)
	e.FieldStart("total")
	encDecimal(e, o.Total)
	encOptStr(e, "promoCode", o.PromoCode)

	e.FieldStart("paymentMethod")
	e.Str(string(o.PaymentMethod))
	e.FieldStart("paymentStatus")
	e.Str(string(o.PaymentStatus))
	e.FieldStart("status")
	e.Str(string(o.Status))

	e.FieldStart("shippingAddress")
	e.ObjStart()
	e.FieldStart("name")
	e.Str(o.ShippingAddress.Name)
	e.FieldStart("street")
	e.Str(o.ShippingAddress.Street)
	e.FieldStart("city")
	e.Str(o.ShippingAddress.City)
	e.FieldStart("state")
	e.Str(o.ShippingAddress.State)
	e.FieldStart("pincode")
	e.Str(o.ShippingAddress.Pincode)
	e.FieldStart("phone")
	e.Str(o.ShippingAddress.Phone)
	e.ObjEnd()

	encOptStr(e, "deliveryPartnerId", o.DeliveryPartnerID)
	encOptStr(e, "deliveryPartnerName", o.DeliveryPartnerName)

	e.FieldStart("timeline")
	e.ArrStart()
	for _, ev := range o.Timeline {
		e.ObjStart()
		e.FieldStart("status")
		e.Str(string(ev.Status))
		e.FieldStart("timestamp")
		encTime(e, ev.Timestamp)
		e.FieldStart("message")
		e.Str(ev.Message)
		encOptStr(e, "location", ev.Location)
		e.ObjEnd()
	}
	e.ArrEnd()

	encOptStr(e, "notes", o.Notes)
	e.FieldStart("createdAt")
	encTime(e, o.CreatedAt)
	e.FieldStart("updatedAt")
	encTime(e, o.UpdatedAt)
	e.ObjEnd()
}
