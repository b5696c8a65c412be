package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/handlers"
	"github.com/akolanti/MLServe/internal/middleware"
	"github.com/go-chi/chi/v5"
)

type MockPredictor struct {
	OnPredictLabels func(ctx context.Context, instances [][]float64) ([]string, error)
}

func (m *MockPredictor) PredictLabels(ctx context.Context, instances [][]float64) ([]string, error) {
	return m.OnPredictLabels(ctx, instances)
}

func newTestServer(t *testing.T, settings *config.Settings, mcp http.Handler) *httptest.Server {
	t.Helper()
	handlers.Init(handlers.Config{Predictor: &MockPredictor{
		OnPredictLabels: func(ctx context.Context, instances [][]float64) ([]string, error) {
			if trace, _ := ctx.Value(config.TRACE_ID_KEY).(string); trace == "" {
				t.Error("handler ran without a trace id")
			}
			return []string{"setosa"}, nil
		},
	}})
	middleware.Init(settings)

	r := chi.NewRouter()
	r.Use(middleware.CORS)
	RegisterRoutes(r, NewRoutes(settings, mcp))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func request(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func TestRoutes_BearerAuth(t *testing.T) {
	settings := &config.Settings{
		AuthToken:    "secret",
		HealthRoute:  "/health",
		PredictRoute: "/v1/predict",
	}
	srv := newTestServer(t, settings, nil)
	body := `{"instances":[[5.1,3.5,1.4,0.2]]}`

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"no token", http.MethodPost, "/v1/predict", "", http.StatusUnauthorized},
		{"wrong token", http.MethodPost, "/v1/predict", "nope", http.StatusUnauthorized},
		{"valid token", http.MethodPost, "/v1/predict", "secret", http.StatusOK},
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"dashboard is public", http.MethodGet, "/dashboard", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := request(t, tt.method, srv.URL+tt.path, tt.token, body)
			if res.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestRoutes_TraceAndCORS(t *testing.T) {
	srv := newTestServer(t, &config.Settings{HealthRoute: "/healthz", PredictRoute: "/custom/predict"}, nil)

	res := request(t, http.MethodPost, srv.URL+"/custom/predict", "", `{"instances":[[1,2,3,4]]}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("custom predict route: status = %d", res.StatusCode)
	}
	if res.Header.Get("X-Trace-Id") == "" {
		t.Error("response is missing the trace id")
	}
	if res.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("response is missing the CORS header")
	}

	preflight := request(t, http.MethodOptions, srv.URL+"/api/review", "", "")
	if preflight.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", preflight.StatusCode)
	}

	if res := request(t, http.MethodGet, srv.URL+"/healthz", "", ""); res.StatusCode != http.StatusOK {
		t.Errorf("custom health route: status = %d", res.StatusCode)
	}
}

func TestRoutes_RateLimit(t *testing.T) {
	srv := newTestServer(t, &config.Settings{RateLimitEnabled: true, HealthRoute: "/health", PredictRoute: "/v1/predict"}, nil)

	limited := false
	for range config.BURST_RATE_LIMIT_PER_SECOND + 5 {
		if res := request(t, http.MethodGet, srv.URL+"/", "", ""); res.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("burst beyond the limit was never rejected")
	}
}

func TestRoutes_MCPMountedWhenConfigured(t *testing.T) {
	called := false
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	srv := newTestServer(t, &config.Settings{HealthRoute: "/health", PredictRoute: "/v1/predict"}, mcp)

	if res := request(t, http.MethodPost, srv.URL+"/mcp", "", `{}`); res.StatusCode != http.StatusOK || !called {
		t.Errorf("mcp handler not reached: status = %d", res.StatusCode)
	}
}
