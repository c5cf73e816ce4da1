package controllers

import (
	"net/http"
	"strings"

	"github.com/peacetifal/peacetifal-backend/api/responses"
	"github.com/peacetifal/peacetifal-backend/api/validators"
	usersvc "github.com/peacetifal/peacetifal-backend/internal/users"
	"github.com/peacetifal/peacetifal-backend/pkg/enums"
	pkgerrors "github.com/peacetifal/peacetifal-backend/pkg/errors"
	"github.com/peacetifal/peacetifal-backend/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthLogin authenticates an operator and returns an access token.
func AuthLogin(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

// AuthRegister creates an operator account. The router only exposes this
// outside production.
func AuthRegister(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var payload createUserRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(strings.TrimSpace(payload.Role))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		user, err := svc.CreateUser(r.Context(), usersvc.CreateUserInput{
			Email:    payload.Email,
			Password: payload.Password,
			Role:     role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}
