package httpapi

import (
	"errors"
	"net/http"

	"github.com/calliope-studio/portal/internal/domain"
	"github.com/calliope-studio/portal/internal/repository"
)

// writeDomainError maps the domain error taxonomy onto HTTP statuses and
// stable machine-readable codes. Unrecognized errors are persistence
// failures: the storage layer is the only remaining source.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPhaseKey):
		WriteError(w, http.StatusBadRequest, "INVALID_PHASE_KEY", err.Error())
	case errors.Is(err, domain.ErrPhaseMismatch):
		WriteError(w, http.StatusConflict, "PHASE_MISMATCH", err.Error())
	case errors.Is(err, domain.ErrRequirementNotFound):
		WriteError(w, http.StatusNotFound, "REQUIREMENT_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrUnauthorizedToggle):
		WriteError(w, http.StatusForbidden, "UNAUTHORIZED_TOGGLE", err.Error())
	case errors.Is(err, domain.ErrProjectArchived):
		WriteError(w, http.StatusConflict, "PROJECT_ARCHIVED", err.Error())
	case errors.Is(err, domain.ErrWebhookVerification):
		WriteError(w, http.StatusBadRequest, "WEBHOOK_VERIFICATION_FAILED", err.Error())
	case errors.Is(err, repository.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "PERSISTENCE_FAILURE", err.Error())
	}
}
