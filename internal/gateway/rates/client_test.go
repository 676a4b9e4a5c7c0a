package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSimplePrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/simple/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("vs_currencies") != "ngn" {
			t.Errorf("vs_currencies = %q", q.Get("vs_currencies"))
		}
		if q.Get("x_cg_demo_api_key") != "demo-key" {
			t.Errorf("api key = %q", q.Get("x_cg_demo_api_key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin":{"ngn":165000000},"ethereum":{"ngn":5500000},"tether":{"ngn":1550},"usd-coin":{"ngn":1550}}`))
	}))
	defer server.Close()

	client := NewClient("demo-key", server.URL, 5*time.Second, zap.NewNop())
	prices := client.SimplePrices(context.Background())

	if prices["bitcoin"]["ngn"] != 165000000 {
		t.Errorf("bitcoin price = %v, want 165000000", prices["bitcoin"]["ngn"])
	}
	if prices["tether"]["ngn"] != 1550 {
		t.Errorf("tether price = %v, want 1550", prices["tether"]["ngn"])
	}
}

func TestSimplePricesFallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		close   bool
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>rate limited</html>"))
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{}"))
			},
		},
		{
			name:    "unreachable",
			handler: func(w http.ResponseWriter, r *http.Request) {},
			close:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			if tt.close {
				server.Close()
			} else {
				defer server.Close()
			}

			client := NewClient("", server.URL, time.Second, zap.NewNop())
			prices := client.SimplePrices(context.Background())

			if prices["bitcoin"]["ngn"] != FallbackRates["bitcoin"]["ngn"] {
				t.Errorf("expected fallback rates, got %v", prices)
			}
			if prices["usd-coin"]["ngn"] != 1600 {
				t.Errorf("usd-coin fallback = %v, want 1600", prices["usd-coin"]["ngn"])
			}
		})
	}
}
