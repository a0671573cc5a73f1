package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(includeStack bool) *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(os.Stdout, nil)), includeStack)
}

func TestErrorHandler_ErrorToProblem(t *testing.T) {
	h := newTestHandler(false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "deadline exceeded",
			err:        fmt.Errorf("load: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "api error",
			err:        ErrJoinUnsupported,
			wantStatus: http.StatusConflict,
			wantType:   TypeJoinUnsupported,
		},
		{
			name:       "wrapped data source error",
			err:        fmt.Errorf("pipeline: %w", NewDataSourceError("missing columns", nil)),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDataSourceUnavailable,
		},
		{
			name:       "geo source error",
			err:        NewGeoSourceError("unsupported CRS", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeGeoSourceUnavailable,
		},
		{
			name:       "validation app error",
			err:        NewAppValidationError("unknown metric"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "export failure keeps its code",
			err:        ExportFailed("xlsx", errors.New("disk full")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeExportFailed,
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard/summary", nil)
			problem := h.ErrorToProblem(tt.err, r)

			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/dashboard/summary", problem.Instance)
		})
	}
}

func TestErrorHandler_AppErrorContext(t *testing.T) {
	h := newTestHandler(false)
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	err := NewDataSourceError("missing columns", nil).WithContext("missing", []string{"cas_mal"})
	problem := h.ErrorToProblem(err, r)

	assert.Equal(t, "DATA_SOURCE", problem.Extensions["error_type"])
	assert.Equal(t, map[string]interface{}{"missing": []string{"cas_mal"}}, problem.Extensions["context"])
}

func TestErrorHandler_HandleError(t *testing.T) {
	h := newTestHandler(false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/dashboard/map", nil)

	h.HandleError(w, r, NewGeoSourceError("boundary file unreadable", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, TypeGeoSourceUnavailable, body["type"])
	assert.Contains(t, body, "trace_id")
	assert.NotContains(t, body, "stack")
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	h := newTestHandler(false)
	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, w.Body.Len())
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	h := newTestHandler(true)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandlePanic(w, r, "nil map")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "nil map", body["panic"])
	assert.NotEmpty(t, body["stack"])
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler(false)

	w := httptest.NewRecorder()
	h.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/dashboard/summary", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "DELETE")
	assert.Contains(t, w.Body.String(), TypeNotAllowed)
}

func TestErrorHandler_StackOnlyOnServerErrors(t *testing.T) {
	h := newTestHandler(true)

	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), ErrValidation("metric", "unknown"))
	assert.NotContains(t, w.Body.String(), `"stack"`)

	w = httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))
	assert.Contains(t, w.Body.String(), `"stack"`)
}
