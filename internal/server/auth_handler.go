package server

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/taskforge/taskforge/internal/service"
	"github.com/taskforge/taskforge/internal/telemetry"
)

// AuthHandler serves login and registration.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
}

func NewAuthHandler(auth *service.AuthService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{auth: auth, validate: validate}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if details := decodeAndValidate(h.validate, r, &req); details != nil {
		writeError(w, r, http.StatusBadRequest, "invalid login request", details...)
		return
	}

	telemetry.GetMetrics().LoginAttemptsTotal.Add(r.Context(), 1)

	token, err := h.auth.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		telemetry.GetMetrics().LoginFailuresTotal.Add(r.Context(), 1)
		renderError(w, r, err)
		return
	}

	telemetry.GetMetrics().TokensIssuedTotal.Add(r.Context(), 1)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if details := decodeAndValidate(h.validate, r, &req); details != nil {
		writeError(w, r, http.StatusBadRequest, "invalid registration request", details...)
		return
	}

	account, err := h.auth.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		renderError(w, r, err)
		return
	}

	telemetry.GetMetrics().AccountsCreatedTotal.Add(r.Context(), 1)
	writeJSON(w, http.StatusCreated, newAccountResponse(account))
}
