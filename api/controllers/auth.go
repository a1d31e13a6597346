package controllers

import (
	"net/http"
	"time"

	"github.com/m4ssya/warehouse-backend/api/middleware"
	"github.com/m4ssya/warehouse-backend/api/responses"
	"github.com/m4ssya/warehouse-backend/api/validators"
	"github.com/m4ssya/warehouse-backend/internal/users"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

type loginBody struct {
	Login    string `json:"login" validate:"required,min=1,max=128"`
	Password string `json:"password" validate:"required,min=1,max=256"`
}

type registerBody struct {
	Username    string  `json:"username" validate:"required,min=3,max=64"`
	Email       *string `json:"email" validate:"omitempty,email"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=128"`
	Password    string  `json:"password" validate:"required,min=8,max=256"`
	Role        string  `json:"role" validate:"omitempty,oneof=admin user"`
}

type userView struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       *string    `json:"email,omitempty"`
	DisplayName *string    `json:"display_name,omitempty"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func newUserView(user *models.User) userView {
	return userView{
		ID:          user.ID.String(),
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
	}
}

func AuthLogin(service users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := service.Authenticate(r.Context(), body.Login, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"token": result.Token,
			"user":  newUserView(result.User),
		})
	}
}

// AuthRegister creates an account. Only admins may assign the admin role.
func AuthRegister(service users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.UserRole(body.Role)
		if role == enums.UserRoleAdmin && middleware.RoleFromContext(r.Context()) != string(enums.UserRoleAdmin) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may create admin accounts"))
			return
		}

		user, err := service.Register(r.Context(), users.RegisterInput{
			Username:    validators.SanitizeString(body.Username, 64),
			Email:       body.Email,
			DisplayName: body.DisplayName,
			Password:    body.Password,
			Role:        role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newUserView(user))
	}
}

func AuthLogout(service users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		if err := service.Logout(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged out"})
	}
}
