// Package respond writes JSON bodies and classified errors for the handlers.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dxtobi/xplus/pkg/api"
	"github.com/Dxtobi/xplus/pkg/apperrors"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Error writes err as an api.Error with its mapped status. Internal failures
// are logged and replaced by a generic message.
func Error(w http.ResponseWriter, logger *slog.Logger, err error) {
	appErr := apperrors.From(err)
	status := apperrors.Status(appErr)
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "reason", appErr.Reason, "error", err)
		if status == http.StatusInternalServerError {
			message = apperrors.ErrInternal.Message
		}
	}
	JSON(w, status, api.Error{Reason: appErr.Reason, Message: message})
}

// Decode reads a JSON body into v, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Validation("Invalid request body: %v", err)
	}
	return nil
}

// BadParam is an api.ChiServerOptions error handler for parameters that fail to bind.
func BadParam(w http.ResponseWriter, _ *http.Request, err error) {
	var paramErr *api.InvalidParamFormatError
	if errors.As(err, &paramErr) {
		JSON(w, http.StatusBadRequest, api.Error{Reason: apperrors.ErrInvalidInput.Reason, Message: paramErr.Error()})
		return
	}
	JSON(w, http.StatusBadRequest, api.Error{Reason: apperrors.ErrInvalidInput.Reason, Message: err.Error()})
}
