package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/budgetshare/internal/auth"
	"github.com/mmynk/budgetshare/internal/metrics"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func whoAmI(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(GetUserID(r.Context()) + "|" + GetEmail(r.Context())))
}

func TestAuthenticate(t *testing.T) {
	jwtManager := auth.NewJWTManager(testSecret, time.Hour)
	token, err := jwtManager.Generate("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	handler := Authenticate(jwtManager)(http.HandlerFunc(whoAmI))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "user-1|alice@example.com"},
		{"lowercase scheme", "bearer " + token, http.StatusOK, "user-1|alice@example.com"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/shared-budgets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if rec.Body.String() != tt.wantBody {
					t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
				}
				return
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("error body is not JSON: %v", err)
			}
			if body["code"] != "unauthenticated" || body["error"] == "" {
				t.Errorf("error body = %v", body)
			}
		})
	}
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/shared-budgets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/shared-budgets/"+id, nil))
	}

	got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/shared-budgets/{id}", "404"))
	if got != 3 {
		t.Errorf("requests for route pattern = %v, want 3", got)
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORS([]string{"*"})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("listed origin echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://app.test")
		rec := httptest.NewRecorder()
		CORS([]string{"http://app.test"})(next).ServeHTTP(rec, req)
		if rec.Header().Get("Access-Control-Allow-Origin") != "http://app.test" {
			t.Errorf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
		if rec.Code != http.StatusTeapot {
			t.Errorf("status = %d, want passthrough", rec.Code)
		}
	})

	t.Run("unlisted origin omitted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.test")
		rec := httptest.NewRecorder()
		CORS([]string{"http://app.test"})(next).ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("allow origin = %q, want empty", got)
		}
	})
}
