package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/larrynino/spatial-public-health/internal/errors"
)

// APIKeyHeader carries the API key
const APIKeyHeader = "X-API-Key"

type apiClientKey struct{}

// APIClient returns the client name set by APIKeyAuth
func APIClient(ctx context.Context) string {
	name, _ := ctx.Value(apiClientKey{}).(string)
	return name
}

// APIKeyAuth requires a known X-API-Key. validKeys maps key to client name;
// an empty map disables the check.
func APIKeyAuth(logger *slog.Logger, errorHandler *apierrors.ErrorHandler, validKeys map[string]string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			apiKey := r.Header.Get(APIKeyHeader)

			clientName, valid := "", false
			for key, name := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					clientName, valid = name, true
					break
				}
			}

			if !valid {
				msg := "Invalid API key"
				if apiKey == "" {
					msg = "API key required"
				}
				logger.WarnContext(ctx, "API key rejected",
					slog.String("reason", msg),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", GetRealIP(r)))
				errorHandler.HandleError(w, r, apierrors.Unauthorized(msg))
				return
			}

			ctx = context.WithValue(ctx, apiClientKey{}, clientName)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SecureHeaders provides configurable security headers
type SecureHeaders struct {
	// HSTS settings
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	// ScriptSources are extra origins allowed to serve scripts, such as the
	// chart assets host
	ScriptSources []string

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
}

// DefaultSecureHeaders returns secure headers with default settings
func DefaultSecureHeaders(scriptSources ...string) *SecureHeaders {
	return &SecureHeaders{
		HSTSMaxAge:            63072000, // 2 years
		HSTSIncludeSubdomains: true,
		ScriptSources:         scriptSources,
		XFrameOptions:         "SAMEORIGIN",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "camera=(), geolocation=(), microphone=(), payment=(), usb=()",
	}
}

// Handler returns the middleware handler
func (sh *SecureHeaders) Handler(next http.Handler) http.Handler {
	csp := sh.contentSecurityPolicy()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if sh.HSTSMaxAge > 0 && r.TLS != nil {
			hsts := fmt.Sprintf("max-age=%d", sh.HSTSMaxAge)
			if sh.HSTSIncludeSubdomains {
				hsts += "; includeSubDomains"
			}
			h.Set("Strict-Transport-Security", hsts)
		}
		h.Set("Content-Security-Policy", csp)
		if sh.XFrameOptions != "" {
			h.Set("X-Frame-Options", sh.XFrameOptions)
		}
		if sh.XContentTypeOptions != "" {
			h.Set("X-Content-Type-Options", sh.XContentTypeOptions)
		}
		if sh.ReferrerPolicy != "" {
			h.Set("Referrer-Policy", sh.ReferrerPolicy)
		}
		if sh.PermissionsPolicy != "" {
			h.Set("Permissions-Policy", sh.PermissionsPolicy)
		}
		next.ServeHTTP(w, r)
	})
}

// contentSecurityPolicy allows inline chart scripts and the configured
// script origins
func (sh *SecureHeaders) contentSecurityPolicy() string {
	scripts := []string{"'self'", "'unsafe-inline'"}
	for _, src := range sh.ScriptSources {
		if origin := originOf(src); origin != "" {
			scripts = append(scripts, origin)
		}
	}
	policies := []string{
		"default-src 'self'",
		"script-src " + strings.Join(scripts, " "),
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data: blob:",
		"connect-src 'self'",
		"frame-ancestors 'self'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(policies, "; ")
}

// originOf reduces a URL to scheme://host
func originOf(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || rest == "" {
		return ""
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host
}

// AuditLog records who called a sensitive endpoint and the outcome
func AuditLog(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "audit",
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("client", APIClient(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", GetRealIP(r)),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)))
		})
	}
}
