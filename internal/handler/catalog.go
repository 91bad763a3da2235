package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/woodgrove/furnish/internal/domain/inventory"
)

type updateInventoryRequest struct {
	itemPayload
	Quantity int  `json:"quantity"`
	Sign     bool `json:"sign"` // true adds stock, false removes
}

func (h *Handler) updateInventory(w http.ResponseWriter, r *http.Request) {
	if h.requireManager(w, r) == nil {
		return
	}
	var req updateInventoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	v, err := req.variant()
	if err != nil {
		writeError(w, r, err)
		return
	}

	dir := inventory.Decrease
	if req.Sign {
		dir = inventory.Increase
	}
	if err := h.ledger.Adjust(r.Context(), v, req.Quantity, dir); err != nil {
		writeError(w, r, err)
		return
	}

	qty, err := h.ledger.Quantity(r.Context(), v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("Inventory updated for " + v.Label()) })
			e.Field("quantity", func(e *jx.Encoder) { e.Int(qty) })
		})
	})
}

func (h *Handler) furnitureByPriceRange(w http.ResponseWriter, r *http.Request) {
	minPrice, err := priceParam(r, "min_price", decimal.Zero)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "min_price must be a number")
		return
	}
	maxPrice, err := priceParam(r, "max_price", decimal.NewFromInt(1_000_000))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "max_price must be a number")
		return
	}
	if maxPrice.LessThan(minPrice) {
		writeMessage(w, http.StatusBadRequest, "max_price must be greater than or equal to min_price")
		return
	}

	rows, err := h.catalog.ListByPriceRange(r.Context(), minPrice, maxPrice)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, row := range rows {
				encodeRow(e, row, row.Quantity)
			}
		})
	})
}

func priceParam(r *http.Request, name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(f), nil
}
