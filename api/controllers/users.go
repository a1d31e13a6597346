package controllers

import (
	"net/http"

	"github.com/m4ssya/warehouse-backend/api/responses"
	"github.com/m4ssya/warehouse-backend/api/validators"
	"github.com/m4ssya/warehouse-backend/internal/users"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

type updateRoleBody struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

func ListUsers(service users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := service.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]userView, 0, len(list))
		for i := range list {
			views = append(views, newUserView(&list[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

func UpdateUserRole(service users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := parseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateRoleBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := service.UpdateRole(r.Context(), userID, enums.UserRole(body.Role)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// DeleteUser removes the account and its sale records. Movement history keeps
// the username for the audit trail.
func DeleteUser(service users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := parseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := service.Delete(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
