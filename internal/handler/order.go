package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/woodgrove/furnish/internal/domain/order"
)

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("order_id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("user_email", func(e *jx.Encoder) { e.Str(o.UserEmail) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("total", func(e *jx.Encoder) { e.Float64(o.Total.InexactFloat64()) })
		e.Field("created_at", func(e *jx.Encoder) { e.Str(o.CreatedAt.Format(time.RFC3339)) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("item_id", func(e *jx.Encoder) { e.Int64(l.ItemID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
					})
				}
			})
		})
	})
}

type updateOrderStatusRequest struct {
	OrderID string `json:"order_id"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if h.requireManager(w, r) == nil {
		return
	}
	var req updateOrderStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.OrderID == "" {
		writeMessage(w, http.StatusBadRequest, "order_id must not be empty")
		return
	}

	next, err := order.Advance(r.Context(), h.orders, req.OrderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("Order status updated") })
			e.Field("order_id", func(e *jx.Encoder) { e.Str(req.OrderID) })
			e.Field("status", func(e *jx.Encoder) { e.Str(string(next)) })
		})
	})
}

func (h *Handler) allOrders(w http.ResponseWriter, r *http.Request) {
	if h.requireManager(w, r) == nil {
		return
	}
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, o := range orders {
				encodeOrder(e, o)
			}
		})
	})
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	sess := h.requireUser(w, r)
	if sess == nil {
		return
	}
	orders, err := h.orders.ListByUser(r.Context(), sess.Identity.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, o := range orders {
				encodeOrder(e, o)
			}
		})
	})
}
