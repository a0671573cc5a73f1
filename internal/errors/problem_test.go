package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusServiceUnavailable, TypeDataSourceUnavailable, "Data Source Unavailable", "", "/api/dashboard/summary").
		WithExtension("trace_id", "abc")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeDataSourceUnavailable, got["type"])
	assert.Equal(t, float64(503), got["status"])
	assert.Equal(t, "abc", got["trace_id"])
	assert.Equal(t, "/api/dashboard/summary", got["instance"])
	_, hasDetail := got["detail"]
	assert.False(t, hasDetail)
}

func TestProblemDetails_ExtensionsCannotOverrideStandardFields(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "").
		WithExtension("status", 200)

	data, err := json.Marshal(pd)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":404`)
}

func TestProblemDetails_WithExtensionNilMap(t *testing.T) {
	pd := &ProblemDetails{Status: http.StatusConflict}
	pd.WithExtension("error_code", "JOIN_UNSUPPORTED")
	assert.Equal(t, "JOIN_UNSUPPORTED", pd.Extensions["error_code"])
}

func TestProblemDetails_Render(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	pd := NewProblemDetails(http.StatusConflict, TypeJoinUnsupported, "Conflict", "no area codes", "/")
	require.NoError(t, render.Render(w, r, pd))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), TypeJoinUnsupported)
}
