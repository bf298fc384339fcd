package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("update incident: %w", InvalidOperation("You cannot edit a closed incident."))

	assert.Equal(t, KindInvalidOperation, KindOf(err))
	assert.True(t, IsKind(err, KindInvalidOperation))
	assert.Equal(t, http.StatusBadRequest, KindOf(err).HTTPStatus())
}

func TestKindOf_ForeignErrorIsInternal(t *testing.T) {
	err := errors.New("connection reset")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, KindOf(err).HTTPStatus())
}

func TestError_MessageListsFieldsSorted(t *testing.T) {
	err := Validation(map[string]string{"password": "too short", "email": "exists"})

	assert.Equal(t, "[validation] Validation failed; email: exists; password: too short", err.Error())
}

func TestInternal_Unwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("Failed to save incident", cause)

	assert.ErrorIs(t, err, cause)
}
