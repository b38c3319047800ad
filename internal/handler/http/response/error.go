package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/employee"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/resolution"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/workday"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing access token")
	case errors.Is(err, jwt.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")

	// Resolution domain errors
	case errors.Is(err, resolution.ErrOrganizationRequired):
		BadRequest(w, "Organization id is required", nil)
	case errors.Is(err, resolution.ErrNoOpenPunch):
		NotFound(w, "Employee has no open punch")
	case errors.Is(err, workday.ErrSummaryNotFound):
		NotFound(w, "Workday summary not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, workday.ErrVersionConflict):
		Conflict(w, "Workday summary changed concurrently, retry the request")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
