// Package handler exposes the storefront's HTTP surface: JSON in/out over
// net/http, with session tokens carried in the Authorization header.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/woodgrove/furnish/internal/domain/account"
	"github.com/woodgrove/furnish/internal/domain/catalog"
	"github.com/woodgrove/furnish/internal/domain/cart"
	"github.com/woodgrove/furnish/internal/domain/checkout"
	"github.com/woodgrove/furnish/internal/domain/coupon"
	"github.com/woodgrove/furnish/internal/domain/inventory"
	"github.com/woodgrove/furnish/internal/domain/order"
	"github.com/woodgrove/furnish/internal/session"
)

// Handler implements the storefront endpoints, delegating business logic to
// the injected domain services.
type Handler struct {
	catalog  catalog.Repository
	ledger   *inventory.Ledger
	accounts *account.Service
	checkout *checkout.Service
	orders   order.Repository
	sessions *session.Store
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	catalogRepo catalog.Repository,
	ledger *inventory.Ledger,
	accounts *account.Service,
	checkoutSvc *checkout.Service,
	orders order.Repository,
	sessions *session.Store,
) *Handler {
	return &Handler{
		catalog:  catalogRepo,
		ledger:   ledger,
		accounts: accounts,
		checkout: checkoutSvc,
		orders:   orders,
		sessions: sessions,
	}
}

// Routes returns the ServeMux with every endpoint registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /user_register", h.userRegister)
	mux.HandleFunc("POST /secondary_manager_register", h.managerRegister)
	mux.HandleFunc("GET /sign_in", h.signIn)

	mux.HandleFunc("GET /view_shoppingcart", h.viewCart)
	mux.HandleFunc("PUT /add_item_to_cart", h.addItemToCart)
	mux.HandleFunc("DELETE /remove_item_from_cart", h.removeItemFromCart)
	mux.HandleFunc("POST /checkout", h.checkoutCart)

	mux.HandleFunc("PUT /update_inventory", h.updateInventory)
	mux.HandleFunc("GET /get_furniture_info_by_price_range", h.furnitureByPriceRange)

	mux.HandleFunc("GET /get_user_info", h.getUserInfo)
	mux.HandleFunc("PUT /edit_user's_details", h.editUserDetails)
	mux.HandleFunc("DELETE /delete_user", h.deleteUser)
	mux.HandleFunc("PUT /update_password", h.updatePassword)

	mux.HandleFunc("PUT /update_order_status", h.updateOrderStatus)
	mux.HandleFunc("GET /get_all_orders_by_manager", h.allOrders)
	mux.HandleFunc("GET /get_user's_orders_history", h.orderHistory)

	mux.HandleFunc("PUT /apply_tax_on_user", h.applyTax)
	mux.HandleFunc("PUT /add_credit_to_user", h.addCredit)

	return mux
}

// session resolves the caller's session from the Authorization header.
func (h *Handler) session(r *http.Request) *session.Session {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return nil
	}
	return h.sessions.Get(token)
}

// requireUser returns the caller's buyer session, writing 401/403 on failure.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) *session.Session {
	sess := h.session(r)
	if sess == nil {
		writeMessage(w, http.StatusUnauthorized, "User or Manager must be logged in.")
		return nil
	}
	if sess.Identity.Role != account.RoleUser {
		writeMessage(w, http.StatusForbidden, "Only a signed-in user can do that.")
		return nil
	}
	return sess
}

// requireManager returns the caller's manager session, writing 401/403 on
// failure.
func (h *Handler) requireManager(w http.ResponseWriter, r *http.Request) *session.Session {
	sess := h.session(r)
	if sess == nil {
		writeMessage(w, http.StatusUnauthorized, "User or Manager must be logged in.")
		return nil
	}
	if sess.Identity.Role != account.RoleManager {
		writeMessage(w, http.StatusForbidden, "Only a manager can do that.")
		return nil
	}
	return sess
}

// decodeBody parses the request body into dst, rejecting empty bodies.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("No data provided")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("No data provided")
	}
	return nil
}

// writeJSON renders a JSON response built with the jx encoder.
func writeJSON(w http.ResponseWriter, status int, build func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	build(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeMessage renders the {"message": ...} body used by every error path
// and by mutation acknowledgements.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// writeError maps a domain error onto the appropriate status code. Unmapped
// errors are logged and reported as 500 without leaking internals.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, account.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, account.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, account.ErrEmailTaken),
		errors.Is(err, account.ErrInsufficientCredit),
		errors.Is(err, coupon.ErrInvalidCoupon),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidCard),
		errors.Is(err, order.ErrFinalStatus),
		errors.Is(err, order.ErrStatusConflict),
		errors.Is(err, cart.ErrInvalidAmount),
		errors.Is(err, cart.ErrNotInCart),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrInsufficientQuantity):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		var stockErr *inventory.InsufficientStockError
		var attrErr *catalog.InvalidAttributeError
		var valErr *account.ValidationError
		if errors.As(err, &stockErr) || errors.As(err, &attrErr) || errors.As(err, &valErr) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}
