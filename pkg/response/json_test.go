package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"incident-reporting-system/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, "Successfully Created", map[string]string{"incident_id": "RMG123452026"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "Successfully Created", body.Message)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantFields map[string]string
	}{
		{
			name:       "validation fields",
			err:        apperror.ValidationField("email", "A user with this email already exists."),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Validation failed",
			wantFields: map[string]string{"email": "A user with this email already exists."},
		},
		{
			name:       "not found",
			err:        apperror.NotFound("Incident not found"),
			wantStatus: http.StatusNotFound,
			wantMsg:    "Incident not found",
		},
		{
			name:       "invalid operation",
			err:        apperror.InvalidOperation("You cannot edit a closed incident."),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "You cannot edit a closed incident.",
		},
		{
			name:       "unauthenticated",
			err:        apperror.Unauthenticated("Invalid credentials"),
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid credentials",
		},
		{
			name:       "foreign error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromError(rec, zerolog.Nop(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Equal(t, tt.wantFields, body.Errors)
		})
	}
}
