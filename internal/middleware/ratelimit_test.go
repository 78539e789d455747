package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func rateLimitedHandler(t *testing.T, limit int, prefix string) (http.Handler, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	config := RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            1 * time.Second,
		KeyPrefix:         prefix,
	}

	handler := RateLimitMiddleware(client, config, zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return handler, cleanup
}

func TestProperty_RateLimitBlocksRequestsOverWindow(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests past the window limit get 429, the rest pass", prop.ForAll(
		func(limit int, excess int) bool {
			handler, cleanup := rateLimitedHandler(t, limit, "rl_kiosk")
			defer cleanup()

			allowed := 0
			blocked := 0
			for i := 0; i < limit+excess; i++ {
				req := httptest.NewRequest("GET", "/api/products", nil)
				req.RemoteAddr = "10.0.0.7"
				w := httptest.NewRecorder()

				handler.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					allowed++
				case http.StatusTooManyRequests:
					blocked++
				}
			}

			// Exactly limit requests go through, everything past it is rejected
			return allowed == limit && blocked == excess
		},
		gen.IntRange(5, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_RateLimitExposesUsageHeaders(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("responses carry the limit and remaining headers", prop.ForAll(
		func(limit int) bool {
			handler, cleanup := rateLimitedHandler(t, limit, "rl_kiosk_headers")
			defer cleanup()

			req := httptest.NewRequest("GET", "/api/products", nil)
			req.RemoteAddr = "10.0.0.8"
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			return w.Header().Get("X-RateLimit-Limit") != "" &&
				w.Header().Get("X-RateLimit-Remaining") != ""
		},
		gen.IntRange(5, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
