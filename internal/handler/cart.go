package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/woodgrove/furnish/internal/domain/catalog"
	"github.com/woodgrove/furnish/internal/domain/checkout"
)

// itemPayload is the wire shape identifying one furniture variant. Tables
// carry a material, chairs carry adjustability and armrest flags.
type itemPayload struct {
	ObjectType string      `json:"object_type"`
	Item       itemDetails `json:"item"`
}

type itemDetails struct {
	Color string      `json:"color"`
	Table *tableAttrs `json:"table"`
	Chair *chairAttrs `json:"chair"`
}

type tableAttrs struct {
	Material string `json:"material"`
}

type chairAttrs struct {
	IsAdjustable bool `json:"is_adjustable"`
	HasArmrest   bool `json:"has_armrest"`
}

// variant validates the payload and builds the corresponding catalog variant.
func (p *itemPayload) variant() (catalog.Variant, error) {
	kind := catalog.Kind(p.ObjectType)
	switch {
	case kind.IsTable():
		if p.Item.Table == nil {
			return catalog.Variant{}, &catalog.InvalidAttributeError{
				Kind: kind, Attribute: "material", Value: "", Allowed: kind.Materials(),
			}
		}
		return catalog.NewTableVariant(kind, p.Item.Color, p.Item.Table.Material)
	case kind.IsChair():
		var adjustable, armrest bool
		if p.Item.Chair != nil {
			adjustable = p.Item.Chair.IsAdjustable
			armrest = p.Item.Chair.HasArmrest
		}
		return catalog.NewChairVariant(kind, p.Item.Color, adjustable, armrest)
	default:
		return catalog.Variant{}, &catalog.InvalidAttributeError{
			Kind: kind, Attribute: "object_type", Value: p.ObjectType,
			Allowed: []string{
				string(catalog.KindDiningTable), string(catalog.KindWorkDesk),
				string(catalog.KindCoffeeTable), string(catalog.KindWorkChair),
				string(catalog.KindGamingChair),
			},
		}
	}
}

func encodeRow(e *jx.Encoder, row catalog.Row, quantity int) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("item_id", func(e *jx.Encoder) { e.Int64(row.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(row.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(row.Description) })
		e.Field("label", func(e *jx.Encoder) { e.Str(row.Variant().Label()) })
		e.Field("price", func(e *jx.Encoder) { e.Float64(row.Price.InexactFloat64()) })
		e.Field("dimensions", func(e *jx.Encoder) {
			d := row.Variant().Dimensions()
			e.Obj(func(e *jx.Encoder) {
				e.Field("width", func(e *jx.Encoder) { e.Int(d.Width) })
				e.Field("depth", func(e *jx.Encoder) { e.Int(d.Depth) })
				e.Field("height", func(e *jx.Encoder) { e.Int(d.Height) })
			})
		})
		if quantity > 0 {
			e.Field("quantity", func(e *jx.Encoder) { e.Int(quantity) })
		}
	})
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	sess := h.requireUser(w, r)
	if sess == nil {
		return
	}

	lines := sess.Cart.Items()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, l := range lines {
						encodeRow(e, l.Item, l.Quantity)
					}
				})
			})
			e.Field("total", func(e *jx.Encoder) {
				e.Float64(sess.Cart.Total().InexactFloat64())
			})
			e.Field("suggestions", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, l := range lines {
						ids := catalog.CompanionRowIDs(l.Item.Variant())
						if len(ids) == 0 {
							continue
						}
						match, err := h.catalog.FirstInStock(r.Context(), ids)
						if err != nil {
							continue
						}
						encodeRow(e, *match, 0)
					}
				})
			})
		})
	})
}

type addItemRequest struct {
	itemPayload
	Amount int `json:"amount"`
}

func (h *Handler) addItemToCart(w http.ResponseWriter, r *http.Request) {
	sess := h.requireUser(w, r)
	if sess == nil {
		return
	}
	var req addItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Amount == 0 {
		req.Amount = 1
	}

	v, err := req.variant()
	if err != nil {
		writeError(w, r, err)
		return
	}
	row, err := h.catalog.FindByVariant(r.Context(), v)
	if err != nil {
		writeError(w, r, err)
		return
	}

	added, err := sess.Cart.Add(r.Context(), h.ledger, *row, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !added {
		writeMessage(w, http.StatusBadRequest, "Item couldn't be added to the cart - not enough stock")
		return
	}
	writeMessage(w, http.StatusOK, "Item added to cart")
}

func (h *Handler) removeItemFromCart(w http.ResponseWriter, r *http.Request) {
	sess := h.requireUser(w, r)
	if sess == nil {
		return
	}
	var req itemPayload
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	v, err := req.variant()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := sess.Cart.Remove(v); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Item removed from cart")
}

type checkoutRequest struct {
	CardNumber string `json:"credit_card_num"`
	CouponCode string `json:"coupon_code"`
}

func (h *Handler) checkoutCart(w http.ResponseWriter, r *http.Request) {
	sess := h.requireUser(w, r)
	if sess == nil {
		return
	}
	var req checkoutRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.checkout.Checkout(r.Context(), sess.Cart, checkout.Request{
		UserEmail:  sess.Identity.Email,
		CardNumber: req.CardNumber,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("Checkout successful") })
			e.Field("order_id", func(e *jx.Encoder) { e.Str(o.ID) })
			e.Field("total", func(e *jx.Encoder) { e.Float64(o.Total.InexactFloat64()) })
			e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		})
	})
}
