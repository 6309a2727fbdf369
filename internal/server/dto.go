package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskforge/taskforge/internal/models"
	"github.com/taskforge/taskforge/internal/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type registerRequest struct {
	Login    string `json:"login" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type updateAccountRequest struct {
	Login    *string `json:"login" validate:"omitempty,min=3,max=64"`
	Password *string `json:"password" validate:"omitempty,min=6,max=128"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN USER"`
}

type accountResponse struct {
	ID        uuid.UUID `json:"id"`
	Login     string    `json:"login"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newAccountResponse(account *models.Account) accountResponse {
	return accountResponse{
		ID:        account.ID,
		Login:     account.Login,
		Role:      string(account.Role),
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}

type taskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Completed   bool   `json:"completed"`
}

type taskResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CreationDate time.Time `json:"creation_date"`
	Completed    bool      `json:"completed"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		CreationDate: task.CreationDate,
		Completed:    task.Completed,
	}
}

// decodeAndValidate parses the JSON body into dst and runs the validator
// tags. Returned errors are suitable for the 400 envelope details.
func decodeAndValidate(v *validator.Validate, r *http.Request, dst any) []string {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return []string{"request body must be valid JSON"}
	}

	err := v.Struct(dst)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return []string{"request body could not be validated"}
	}

	var details []string
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			details = append(details, fmt.Sprintf("field %q failed %q validation", fe.Field(), fe.Tag()))
		}
	}
	return details
}

// pageFromQuery reads Spring style page/size query parameters with a zero
// based page number. Out of range values fall back to the defaults.
func pageFromQuery(r *http.Request) store.Page {
	page := store.Page{Number: 0, Size: defaultPageSize}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			page.Number = n
		}
	}

	if raw := r.URL.Query().Get("size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= maxPageSize {
			page.Size = n
		}
	}

	return page
}
