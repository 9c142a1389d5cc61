// internal/middleware/middleware.go
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"iqrabackend/internal/faults"
	"iqrabackend/internal/logger"
	"iqrabackend/internal/security"
)

// Request context keys
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	RoleKey      contextKey = "user_role"
)

// Standard API error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id"`
}

// Standard API success response
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id"`
}

// APIMiddleware is the chain for endpoints any role may call.
func APIMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return RequestID(
		Logging(
			RoleContext(
				ErrorHandling(next),
			),
		),
	)
}

// RoleMiddleware is the chain for mutation endpoints: same as
// APIMiddleware plus a minimum-role gate.
func RoleMiddleware(min security.Role, next http.HandlerFunc) http.HandlerFunc {
	return RequestID(
		Logging(
			RoleContext(
				RequireRole(min,
					ErrorHandling(next),
				),
			),
		),
	)
}

// RequestID middleware adds a unique request ID to each request
func RequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// Logging middleware logs all API requests with consistent format
func Logging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := getRequestID(r.Context())

		logger.LogInfo("API request started: id=%s %s %s from %s",
			requestID, r.Method, r.URL.Path, logger.GetClientIP(r))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		logger.LogInfo("API request completed: id=%s status=%d took=%v",
			requestID, rw.statusCode, duration)
	}
}

// RoleContext resolves the caller's role once and stashes it.
func RoleContext(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := security.RoleFromRequest(r)
		ctx := context.WithValue(r.Context(), RoleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireRole rejects callers below the minimum role.
func RequireRole(min security.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := GetRole(r.Context())
		if !role.AtLeast(min) {
			WriteAPIError(w, r, http.StatusForbidden, "forbidden",
				fmt.Sprintf("This operation requires the %s role", min), "")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// ErrorHandling middleware provides panic recovery and consistent error responses
func ErrorHandling(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				requestID := getRequestID(r.Context())
				logger.LogError("Panic in API handler: id=%s path=%s error=%v", requestID, r.URL.Path, err)
				WriteAPIError(w, r, http.StatusInternalServerError, "internal_error",
					"An internal error occurred", "")
			}
		}()
		next.ServeHTTP(w, r)
	}
}

// GetRole retrieves the caller's role from request context
func GetRole(ctx context.Context) security.Role {
	if role, ok := ctx.Value(RoleKey).(security.Role); ok {
		return role
	}
	return security.RoleViewer
}

// Helper functions
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WriteAPIError writes a standardized error response
func WriteAPIError(w http.ResponseWriter, r *http.Request, statusCode int, code, message, details string) {
	requestID := getRequestID(r.Context())

	response := APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// WriteAPISuccess writes a standardized success response
func WriteAPISuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	requestID := getRequestID(r.Context())

	response := APIResponse{
		Success:   true,
		Data:      data,
		RequestID: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// WriteFaultError maps engine error kinds onto HTTP statuses:
// validation → 400, not found → 404, store failure → 503.
func WriteFaultError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case faults.IsValidation(err):
		WriteAPIError(w, r, http.StatusBadRequest, "validation_error", err.Error(), "")
	case faults.IsNotFound(err):
		WriteAPIError(w, r, http.StatusNotFound, "not_found", err.Error(), "")
	case faults.IsStore(err):
		logger.LogHTTPError(r, http.StatusServiceUnavailable, err)
		WriteAPIError(w, r, http.StatusServiceUnavailable, "store_unavailable",
			"The data store is unavailable; nothing was saved", "")
	default:
		logger.LogHTTPError(r, http.StatusInternalServerError, err)
		WriteAPIError(w, r, http.StatusInternalServerError, "internal_error",
			"An internal error occurred", "")
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// ParseJSONRequest parses JSON request body into the provided struct
func ParseJSONRequest(r *http.Request, v interface{}) error {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return fmt.Errorf("content-type must be application/json")
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields() // Strict parsing
	return decoder.Decode(v)
}
