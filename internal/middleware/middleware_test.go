// internal/middleware/middleware_test.go
package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"iqrabackend/internal/faults"
	"iqrabackend/internal/security"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	WriteAPISuccess(w, r, map[string]string{"ok": "yes"})
}

func TestRoleMiddlewareGating(t *testing.T) {
	handler := RoleMiddleware(security.RoleAdmin, okHandler)

	cases := []struct {
		role string
		want int
	}{
		{"admin", http.StatusOK},
		{"user", http.StatusForbidden},
		{"viewer", http.StatusForbidden},
		{"", http.StatusForbidden},
		{"superuser", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run("role "+tc.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/departments/save", nil)
			if tc.role != "" {
				req.Header.Set("X-User-Role", tc.role)
			}
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestViewerCanReachReadEndpoints(t *testing.T) {
	handler := RoleMiddleware(security.RoleViewer, okHandler)

	req := httptest.NewRequest(http.MethodGet, "/families", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for a viewer on a read endpoint", rec.Code)
	}
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	handler := APIMiddleware(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/families", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestErrorHandlingRecoversPanics(t *testing.T) {
	handler := APIMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/families", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 after panic", rec.Code)
	}
}

func TestWriteFaultErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", faults.Invalid("amount", "must be positive"), http.StatusBadRequest},
		{"not found", faults.NotFound("payment", "TXN-X-1"), http.StatusNotFound},
		{"store", faults.Store("insert", errors.New("disk full")), http.StatusServiceUnavailable},
		{"unknown", errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			WriteFaultError(rec, req, tc.err)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestParseJSONRequest(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	if err := ParseJSONRequest(req, &dst); err != nil {
		t.Errorf("ParseJSONRequest = %v, want nil", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	if err := ParseJSONRequest(req, &dst); err == nil {
		t.Error("ParseJSONRequest accepted a non-JSON content type")
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","bogus":1}`))
	req.Header.Set("Content-Type", "application/json")
	if err := ParseJSONRequest(req, &dst); err == nil {
		t.Error("ParseJSONRequest accepted an unknown field")
	}
}
