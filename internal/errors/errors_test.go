package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := ErrValidation("year", "must be numeric")
	assert.Equal(t, "Request validation failed", err.Error())
	assert.Equal(t, ValidationError{Field: "year", Message: "must be numeric"}, err.Details)
	assert.Nil(t, ErrValidationFailed.Details, "predefined value is not mutated")

	invalid := InvalidRequestWithError(stderrors.New("malformed query"))
	assert.Equal(t, "INVALID_REQUEST", invalid.ErrorCode)
	assert.Equal(t, "malformed query", invalid.Details)
}

func TestAPIError_Copies(t *testing.T) {
	msg := ErrWorkbookNotFound.WithMessage("unknown period: T9")
	assert.Equal(t, "unknown period: T9", msg.Message)
	assert.Equal(t, http.StatusNotFound, msg.StatusCode)
	assert.NotSame(t, ErrWorkbookNotFound, msg)
	assert.Equal(t, "No workbook matches the requested period", ErrWorkbookNotFound.Message)

	details := msg.WithDetails(map[string]string{"op": "open"})
	assert.Equal(t, "unknown period: T9", details.Message)
	assert.Nil(t, msg.Details)
}

func TestAppError(t *testing.T) {
	cause := stderrors.New("png: invalid format")
	err := NewRenderError("purity chart could not be rendered", cause).WithContext("chart", "purity")

	assert.Equal(t, "[RENDER] purity chart could not be rendered: png: invalid format", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "purity", err.Context["chart"])

	var target *AppError
	require.ErrorAs(t, error(err), &target)
	assert.Equal(t, ErrTypeRender, target.Type)

	assert.Equal(t, "[RENDER] nothing", NewRenderError("nothing", nil).Error())
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/x").
		WithExtension("trace_id", "abc").
		WithExtension("status", 999) // standard members win

	raw, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, float64(404), body["status"])
	assert.Equal(t, "abc", body["trace_id"])
	assert.NotContains(t, body, "detail")
}
