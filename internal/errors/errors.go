package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried in the error_code member of every problem response
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeMunicipalityNotFound  = "MUNICIPALITY_NOT_FOUND"
	CodeJoinUnsupported       = "JOIN_UNSUPPORTED"
	CodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	CodeExportFailed          = "EXPORT_FAILED"
	CodeDataSourceUnavailable = "DATA_SOURCE_UNAVAILABLE"
	CodeGeoSourceUnavailable  = "GEO_SOURCE_UNAVAILABLE"
	CodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
)

type codeInfo struct {
	status      int
	problemType string
}

var codes = map[string]codeInfo{
	CodeInvalidRequest:        {http.StatusBadRequest, TypeValidation},
	CodeValidationFailed:      {http.StatusBadRequest, TypeValidation},
	CodeUnauthorized:          {http.StatusUnauthorized, TypeUnauthorized},
	CodeMunicipalityNotFound:  {http.StatusNotFound, TypeNotFound},
	CodeJoinUnsupported:       {http.StatusConflict, TypeJoinUnsupported},
	CodeRateLimitExceeded:     {http.StatusTooManyRequests, TypeRateLimit},
	CodeExportFailed:          {http.StatusInternalServerError, TypeExportFailed},
	CodeDataSourceUnavailable: {http.StatusServiceUnavailable, TypeDataSourceUnavailable},
	CodeGeoSourceUnavailable:  {http.StatusServiceUnavailable, TypeGeoSourceUnavailable},
	CodeServiceUnavailable:    {http.StatusServiceUnavailable, TypeServiceDown},
}

// ProblemType returns the problem type URI of an error code, or TypeInternal
func ProblemType(code string) string {
	if info, ok := codes[code]; ok {
		return info.problemType
	}
	return TypeInternal
}

// APIError is an error with a stable code meant for API clients
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// WithDetails returns a copy of e carrying details
func (e *APIError) WithDetails(details interface{}) *APIError {
	c := *e
	c.Details = details
	return &c
}

// ValidationError describes one rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload of a multi-field rejection
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// New creates an APIError
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates an APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return New(statusCode, errorCode, message).WithDetails(details)
}

// fromCode takes the status from the code table
func fromCode(code, message string) *APIError {
	return New(codes[code].status, code, message)
}

var (
	ErrMunicipalityNotFound  = fromCode(CodeMunicipalityNotFound, "Municipality not found")
	ErrJoinUnsupported       = fromCode(CodeJoinUnsupported, "Dataset has no area codes; geometry join is not available")
	ErrRateLimitExceeded     = fromCode(CodeRateLimitExceeded, "Rate limit exceeded")
	ErrExportFailed          = fromCode(CodeExportFailed, "Export failed")
	ErrDataSourceUnavailable = fromCode(CodeDataSourceUnavailable, "Intervention dataset could not be loaded")
	ErrGeoSourceUnavailable  = fromCode(CodeGeoSourceUnavailable, "Municipal boundaries could not be loaded")
	ErrServiceUnavailable    = fromCode(CodeServiceUnavailable, "Service temporarily unavailable")
)

// InvalidRequest wraps a request that could not be decoded or checked
func InvalidRequest(err error) *APIError {
	return fromCode(CodeInvalidRequest, "Invalid request format").WithDetails(err.Error())
}

// ErrValidation rejects a single field
func ErrValidation(field, message string) *APIError {
	return fromCode(CodeValidationFailed, "Request validation failed").
		WithDetails(ValidationError{Field: field, Message: message})
}

// NewValidationErrors rejects several fields at once
func NewValidationErrors(errs []ValidationError) *APIError {
	return fromCode(CodeValidationFailed, "Request validation failed").
		WithDetails(ValidationErrors{Errors: errs})
}

// Unauthorized rejects a request without a valid API key
func Unauthorized(message string) *APIError {
	return fromCode(CodeUnauthorized, message)
}

// ExportFailed reports which export format could not be produced
func ExportFailed(format string, err error) *APIError {
	return ErrExportFailed.WithDetails(map[string]string{"format": format, "error": err.Error()})
}

// ServiceUnavailable wraps an error that is expected to clear on retry
func ServiceUnavailable(err error) *APIError {
	return ErrServiceUnavailable.WithDetails(err.Error())
}

// DataSourceUnavailable wraps a dataset load failure
func DataSourceUnavailable(err error) *APIError {
	return ErrDataSourceUnavailable.WithDetails(err.Error())
}

// GeoSourceUnavailable wraps a boundary load failure
func GeoSourceUnavailable(err error) *APIError {
	return ErrGeoSourceUnavailable.WithDetails(err.Error())
}
