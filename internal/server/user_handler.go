package server

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/service"
	"github.com/taskforge/taskforge/internal/telemetry"
)

// UserHandler serves account administration and profile endpoints.
type UserHandler struct {
	users    *service.UserService
	validate *validator.Validate
}

func NewUserHandler(users *service.UserService, validate *validator.Validate) *UserHandler {
	return &UserHandler{users: users, validate: validate}
}

func accountIDFromPath(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		renderError(w, r, auth.ErrAuthenticationRequired)
		return
	}

	account, err := h.users.Get(r.Context(), principal.ID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)

	accounts, total, err := h.users.List(r.Context(), page)
	if err != nil {
		renderError(w, r, err)
		return
	}

	content := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		content = append(content, newAccountResponse(account))
	}

	writeJSON(w, http.StatusOK, newPagedResponse(content, page, total))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFromPath(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid account id")
		return
	}

	account, err := h.users.Get(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		renderError(w, r, auth.ErrAuthenticationRequired)
		return
	}

	id, ok := accountIDFromPath(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid account id")
		return
	}

	var req updateAccountRequest
	if details := decodeAndValidate(h.validate, r, &req); details != nil {
		writeError(w, r, http.StatusBadRequest, "invalid profile update request", details...)
		return
	}

	account, err := h.users.Update(r.Context(), id, service.ProfileUpdate{
		Login:    req.Login,
		Password: req.Password,
	}, principal)
	if err != nil {
		renderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		renderError(w, r, auth.ErrAuthenticationRequired)
		return
	}

	id, ok := accountIDFromPath(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid account id")
		return
	}

	var req changeRoleRequest
	if details := decodeAndValidate(h.validate, r, &req); details != nil {
		writeError(w, r, http.StatusBadRequest, "invalid role change request", details...)
		return
	}

	account, err := h.users.ChangeRole(r.Context(), id, models.Role(req.Role), principal)
	if err != nil {
		if isGuardViolation(err) {
			telemetry.GetMetrics().GuardViolationsTotal.Add(r.Context(), 1)
		}
		renderError(w, r, err)
		return
	}

	telemetry.GetMetrics().RoleChangesTotal.Add(r.Context(), 1)
	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		renderError(w, r, auth.ErrAuthenticationRequired)
		return
	}

	id, ok := accountIDFromPath(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid account id")
		return
	}

	if err := h.users.Delete(r.Context(), id, principal); err != nil {
		if isGuardViolation(err) {
			telemetry.GetMetrics().GuardViolationsTotal.Add(r.Context(), 1)
		}
		renderError(w, r, err)
		return
	}

	telemetry.GetMetrics().AccountsDeletedTotal.Add(r.Context(), 1)
	w.WriteHeader(http.StatusNoContent)
}
