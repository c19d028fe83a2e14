package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/repository"
)

type apiError struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
}

type apiResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    any       `json:"data"`
	Error   *apiError `json:"error,omitempty"`
}

func writeRawJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if status >= 400 {
		writeRawJSON(w, status, apiResponse{
			Status:  "error",
			Message: "",
			Data:    payload,
			Error: &apiError{
				Code:   status,
				Status: http.StatusText(status),
			},
		})
		return
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "ok",
		Message: "",
		Data:    payload,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "error",
		Message: message,
		Data:    nil,
		Error: &apiError{
			Code:   status,
			Status: http.StatusText(status),
		},
	})
}

// writeDomainError maps the reconciliation/workflow error taxonomy onto
// HTTP statuses. Anything unrecognised is a plain 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		validation  *domain.ValidationError
		invalidLine *domain.InvalidSalesLineError
	)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidLine):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
