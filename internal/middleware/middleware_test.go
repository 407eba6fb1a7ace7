package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/freeeve/battle-odds/internal/logger"
)

// oddsStack wraps h the way cmd/server does.
func oddsStack(origin string, h http.Handler) http.Handler {
	return Chain(h, Logger, CORS(origin), JSON)
}

func TestOddsStack(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		status     int
		wantStatus int
		wantCalled bool
	}{
		{"calculate", http.MethodPost, "/api/v1/odds", http.StatusOK, http.StatusOK, true},
		{"bad battle", http.MethodPost, "/api/v1/odds", http.StatusBadRequest, http.StatusBadRequest, true},
		{"recent", http.MethodGet, "/api/v1/odds/recent", http.StatusOK, http.StatusOK, true},
		{"unknown route", http.MethodGet, "/api/v1/battles", http.StatusNotFound, http.StatusNotFound, true},
		{"calculate preflight", http.MethodOptions, "/api/v1/odds", http.StatusOK, http.StatusNoContent, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"run":null}`))
			})

			rec := httptest.NewRecorder()
			body := strings.NewReader(`{"attack":"infantry=2","defend":"infantry=1","runs":10}`)
			oddsStack("https://odds.example", inner).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, body))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://odds.example" {
				t.Errorf("expected allowed origin, got %q", got)
			}
			if rec.Header().Get(RequestIDHeader) == "" {
				t.Errorf("expected %s on every response", RequestIDHeader)
			}
		})
	}
}

func TestCORSAllowsOddsClients(t *testing.T) {
	rec := httptest.NewRecorder()
	CORS("*")(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/odds", nil))

	want := map[string]string{
		"Access-Control-Allow-Origin":   "*",
		"Access-Control-Allow-Methods":  "GET, POST, OPTIONS",
		"Access-Control-Allow-Headers":  "Content-Type",
		"Access-Control-Expose-Headers": RequestIDHeader,
		"Access-Control-Max-Age":        "86400",
	}
	for header, v := range want {
		if got := rec.Header().Get(header); got != v {
			t.Errorf("%s = %q, want %q", header, got, v)
		}
	}
}

func TestJSONOnRecent(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"runs":[]}`))
	})

	rec := httptest.NewRecorder()
	JSON(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/odds/recent", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
}

func TestChainRunsLoggerOutermost(t *testing.T) {
	var seen []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if logger.BatchIDFromContext(r.Context()) == "" {
					t.Errorf("%s ran without a batch ID", name)
				}
				seen = append(seen, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, "odds")
	})

	rec := httptest.NewRecorder()
	Chain(inner, Logger, tag("cors"), tag("json")).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/odds", nil))

	want := []string{"cors", "json", "odds"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, seen)
	}
}

func TestLoggerAssignsBatchID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.BatchIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	Logger(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/odds/recent", nil))

	if seen == "" {
		t.Fatal("expected a batch ID in the request context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("expected %s header %q, got %q", RequestIDHeader, seen, got)
	}
}

func TestLoggerHijackNeedsHijacker(t *testing.T) {
	var err error
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("logged writer should expose Hijack for the odds stream")
		}
		_, _, err = hj.Hijack()
	})

	Logger(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/odds/ws", nil))
	if err == nil {
		t.Error("expected an error when the underlying writer cannot hijack")
	}
}
