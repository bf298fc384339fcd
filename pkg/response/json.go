package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"incident-reporting-system/pkg/apperror"

	"github.com/rs/zerolog"
)

type APIResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	resp := APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
	JSON(w, statusCode, resp)
}

func Error(w http.ResponseWriter, statusCode int, message string, errDetail string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
		Error:   errDetail,
	}
	JSON(w, statusCode, resp)
}

func ValidationError(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusBadRequest, APIResponse{
		Status:  "error",
		Message: "Validation failed",
		Errors:  fields,
	})
}

// FromError writes the status and body matching err's kind. Internal
// errors are logged and answered with a generic message.
func FromError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		log.Error().Err(err).Msg("unhandled error")
		Error(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	switch appErr.Kind {
	case apperror.KindValidation:
		if len(appErr.Fields) > 0 {
			ValidationError(w, appErr.Fields)
			return
		}
		Error(w, http.StatusBadRequest, appErr.Message, "")
	case apperror.KindInternal:
		log.Error().Err(appErr.Err).Msg(appErr.Message)
		Error(w, http.StatusInternalServerError, appErr.Message, "")
	default:
		Error(w, appErr.Kind.HTTPStatus(), appErr.Message, "")
	}
}
