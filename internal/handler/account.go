package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/woodgrove/furnish/internal/domain/account"
)

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Credit   float64 `json:"credit"`
}

func (h *Handler) userRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.accounts.RegisterUser(r.Context(), req.Name, req.Email, req.Password, req.Address, decimal.NewFromFloat(req.Credit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "User "+u.Email+" was registered successfully and logged in")
}

type managerRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) managerRegister(w http.ResponseWriter, r *http.Request) {
	if h.requireManager(w, r) == nil {
		return
	}
	var req managerRegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.accounts.RegisterManager(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Manager "+m.Email+" was registered successfully")
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// A fresh sign-in replaces any session the account already holds.
	h.sessions.DeleteByEmail(id.Email)
	token, _ := h.sessions.Create(*id)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("Logged in as: " + id.Email) })
			e.Field("token", func(e *jx.Encoder) { e.Str(token) })
		})
	})
}

func (h *Handler) getUserInfo(w http.ResponseWriter, r *http.Request) {
	sess := h.requireUser(w, r)
	if sess == nil {
		return
	}
	u, err := h.accounts.GetUser(r.Context(), sess.Identity.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("email", func(e *jx.Encoder) { e.Str(u.Email) })
			e.Field("name", func(e *jx.Encoder) { e.Str(u.Name) })
			e.Field("address", func(e *jx.Encoder) { e.Str(u.Address) })
			e.Field("credit", func(e *jx.Encoder) { e.Float64(u.Credit.InexactFloat64()) })
		})
	})
}

type editDetailsRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

func (h *Handler) editUserDetails(w http.ResponseWriter, r *http.Request) {
	sess := h.requireUser(w, r)
	if sess == nil {
		return
	}
	var req editDetailsRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.accounts.UpdateProfile(r.Context(), sess.Identity.Email, req.Name, req.Address); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Updated details for "+sess.Identity.Email)
}

type updatePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if sess == nil {
		writeMessage(w, http.StatusUnauthorized, "User or Manager must be logged in.")
		return
	}
	var req updatePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), sess.Identity, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated for "+sess.Identity.Email)
}

type targetUserRequest struct {
	Email string `json:"email"`
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if h.requireManager(w, r) == nil {
		return
	}
	var req targetUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	email, err := account.NormalizeEmail(req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.accounts.DeleteUser(r.Context(), email); err != nil {
		writeError(w, r, err)
		return
	}
	// A deleted account must not keep a live session.
	h.sessions.DeleteByEmail(email)
	writeMessage(w, http.StatusOK, "User "+email+" was deleted")
}

type applyTaxRequest struct {
	Email   string  `json:"email"`
	TaxRate float64 `json:"tax_rate"`
}

func (h *Handler) applyTax(w http.ResponseWriter, r *http.Request) {
	if h.requireManager(w, r) == nil {
		return
	}
	var req applyTaxRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	email, err := account.NormalizeEmail(req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	credit, err := h.accounts.ApplyTax(r.Context(), email, decimal.NewFromFloat(req.TaxRate))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("Tax applied to " + email) })
			e.Field("credit", func(e *jx.Encoder) { e.Float64(credit.InexactFloat64()) })
		})
	})
}

type addCreditRequest struct {
	Email  string  `json:"email"`
	Amount float64 `json:"amount"`
}

func (h *Handler) addCredit(w http.ResponseWriter, r *http.Request) {
	if h.requireManager(w, r) == nil {
		return
	}
	var req addCreditRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	email, err := account.NormalizeEmail(req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	credit, err := h.accounts.AddCredit(r.Context(), email, decimal.NewFromFloat(req.Amount))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("Credit updated for " + email) })
			e.Field("credit", func(e *jx.Encoder) { e.Float64(credit.InexactFloat64()) })
		})
	})
}
