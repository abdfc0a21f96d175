package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"toolgate/internal/circuitbreaker"
	"toolgate/internal/common/cache"
	"toolgate/internal/common/errors"
	"toolgate/internal/common/logging"
	"toolgate/internal/config"
	"toolgate/internal/ratelimit"
	"toolgate/internal/redis"
)

type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, key, group string) (int64, bool, error) {
	return 0, false, errors.StoreUnavailableError("test", stderrors.New("down"))
}

func (brokenStore) Set(ctx context.Context, key string, value int64, group string, ttl time.Duration) error {
	return errors.StoreUnavailableError("test", stderrors.New("down"))
}

func (brokenStore) Health(ctx context.Context) error {
	return errors.StoreUnavailableError("test", stderrors.New("down"))
}

func testConfig() *config.Config {
	return &config.Config{
		CounterStore: "local",
		ToolsEnabled: true,
		ExposedTools: "ping, pong,wp/get-post",
	}
}

func setupHandlers(t *testing.T, store cache.Store, cfg *config.Config, policy ratelimit.Policy) (*Handlers, *mux.Router) {
	t.Helper()
	return setupHandlersWithLimits(t, store, cfg, policy, ratelimit.DefaultConfig())
}

func setupHandlersWithLimits(t *testing.T, store cache.Store, cfg *config.Config, policy ratelimit.Policy, limits ratelimit.Config) (*Handlers, *mux.Router) {
	t.Helper()

	guard, err := ratelimit.NewGuard(store, policy, limits)
	require.NoError(t, err)

	h := New(guard, store, cfg)

	router := mux.NewRouter()
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/admission/execution", h.CheckExecution).Methods("POST")
	router.HandleFunc("/api/admission/discovery", h.CheckDiscovery).Methods("POST")
	router.HandleFunc("/api/counters", h.ListCounters).Methods("GET")
	router.HandleFunc("/api/counters/execution/{user_id}", h.GetExecutionCounters).Methods("GET")
	router.HandleFunc("/api/counters/discovery/{ip}", h.GetDiscoveryCounters).Methods("GET")
	router.HandleFunc("/tools", h.ListTools).Methods("GET")
	router.HandleFunc("/tools/{name:.+}", h.ExecuteTool).Methods("POST")

	return h, router
}

func do(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestCheckExecution(t *testing.T) {
	_, router := setupHandlers(t, cache.NewLocalCache(time.Minute), testConfig(), ratelimit.PolicyFuncs{
		ExecutionFunc: func(operation string, userID int64) int { return 3 },
		GlobalFunc:    func() int { return 10 },
	})

	for i := 0; i < 3; i++ {
		rr := do(router, "POST", "/api/admission/execution", `{"user_id":7,"operation":"ping"}`, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, true, decode(t, rr)["allowed"])
	}

	rr := do(router, "POST", "/api/admission/execution", `{"user_id":7,"operation":"ping"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, false, decode(t, rr)["allowed"])
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, "3", rr.Header().Get("X-RateLimit-Limit"))

	rr = do(router, "POST", "/api/admission/execution", `{"user_id":7,"operation":"pong"}`, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCheckExecution_ReportsRejectingTier(t *testing.T) {
	ctx := context.Background()
	store := cache.NewLocalCache(time.Minute)
	_, router := setupHandlers(t, store, testConfig(), nil)

	require.NoError(t, store.Set(ctx, ratelimit.GlobalKey(7), 60, ratelimit.Group, time.Minute))

	rr := do(router, "POST", "/api/admission/execution", `{"user_id":7,"operation":"ping"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("X-RateLimit-Limit"))
	body := decode(t, rr)
	assert.Equal(t, "global", body["tier"])
	assert.Equal(t, "rate limit exceeded for global", body["error"])

	require.NoError(t, store.Set(ctx, ratelimit.ExecutionKey(8, "ping"), 30, ratelimit.Group, time.Minute))

	rr = do(router, "POST", "/api/admission/execution", `{"user_id":8,"operation":"ping"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "30", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "operation", decode(t, rr)["tier"])
}

func TestAdmission_StoreFailure(t *testing.T) {
	t.Run("fail closed answers 503", func(t *testing.T) {
		limits := ratelimit.DefaultConfig()
		limits.FailMode = ratelimit.FailClosed
		_, router := setupHandlersWithLimits(t, brokenStore{}, testConfig(), nil, limits)

		rr := do(router, "POST", "/api/admission/execution", `{"user_id":7,"operation":"ping"}`, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Empty(t, rr.Header().Get("Retry-After"))

		rr = do(router, "POST", "/api/admission/discovery", `{"ip":"203.0.113.5"}`, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		rr = do(router, "POST", "/tools/ping", "", map[string]string{"X-User-ID": "7"})
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("fail open admits", func(t *testing.T) {
		_, router := setupHandlers(t, brokenStore{}, testConfig(), nil)

		rr := do(router, "POST", "/api/admission/execution", `{"user_id":7,"operation":"ping"}`, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestCheckExecution_InvalidBody(t *testing.T) {
	_, router := setupHandlers(t, cache.NewLocalCache(time.Minute), testConfig(), nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"user_id":`, "Invalid request body"},
		{"missing user", `{"operation":"ping"}`, "user_id"},
		{"missing operation", `{"user_id":7}`, "operation"},
		{"blank operation", `{"user_id":7,"operation":"a b"}`, "operation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(router, "POST", "/api/admission/execution", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, decode(t, rr)["error"], tt.want)
		})
	}
}

func TestCheckDiscovery(t *testing.T) {
	_, router := setupHandlers(t, cache.NewLocalCache(time.Minute), testConfig(), ratelimit.PolicyFuncs{
		DiscoveryFunc: func(string) int { return 2 },
	})

	t.Run("explicit ip", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			rr := do(router, "POST", "/api/admission/discovery", `{"ip":"203.0.113.5"}`, nil)
			require.Equal(t, http.StatusOK, rr.Code)
		}
		rr := do(router, "POST", "/api/admission/discovery", `{"ip":"203.0.113.5"}`, nil)
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("falls back to client ip", func(t *testing.T) {
		headers := map[string]string{"X-Forwarded-For": "198.51.100.9"}
		assert.Equal(t, http.StatusOK, do(router, "POST", "/api/admission/discovery", "", headers).Code)
		assert.Equal(t, http.StatusOK, do(router, "POST", "/api/admission/discovery", `{}`, headers).Code)
		assert.Equal(t, http.StatusTooManyRequests, do(router, "POST", "/api/admission/discovery", "", headers).Code)
	})

	t.Run("invalid ip", func(t *testing.T) {
		rr := do(router, "POST", "/api/admission/discovery", `{"ip":"nope"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCounters(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	store := cache.NewRedisCache(client)
	_, router := setupHandlers(t, store, testConfig(), nil)

	require.Equal(t, http.StatusOK, do(router, "POST", "/api/admission/execution", `{"user_id":7,"operation":"ping"}`, nil).Code)
	require.Equal(t, http.StatusOK, do(router, "POST", "/api/admission/discovery", `{"ip":"203.0.113.5"}`, nil).Code)
	mr.FastForward(20 * time.Second)

	t.Run("execution", func(t *testing.T) {
		rr := do(router, "GET", "/api/counters/execution/7?operation=ping", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		body := decode(t, rr)
		usage := body["usage"].(map[string]interface{})
		assert.Equal(t, float64(1), usage["count"])
		assert.Equal(t, float64(30), usage["limit"])
		assert.Equal(t, float64(1), usage["global_count"])
		assert.Equal(t, float64(60), usage["global_ceiling"])
		assert.Equal(t, float64(40), body["ttl_seconds"])
		assert.Equal(t, float64(40), body["global_ttl_seconds"])
	})

	t.Run("reading does not count", func(t *testing.T) {
		do(router, "GET", "/api/counters/execution/7?operation=ping", "", nil)
		val, err := mr.Get("toolgate_rate:" + ratelimit.GlobalKey(7))
		require.NoError(t, err)
		assert.Equal(t, "1", val)
	})

	t.Run("discovery", func(t *testing.T) {
		rr := do(router, "GET", "/api/counters/discovery/203.0.113.5", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		usage := decode(t, rr)["usage"].(map[string]interface{})
		assert.Equal(t, float64(1), usage["count"])
		assert.Equal(t, float64(100), usage["limit"])
	})

	t.Run("list", func(t *testing.T) {
		rr := do(router, "GET", "/api/counters", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		body := decode(t, rr)
		assert.Equal(t, float64(3), body["count"])
		assert.Contains(t, body["keys"], ratelimit.GlobalKey(7))
	})

	t.Run("bad input", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(router, "GET", "/api/counters/execution/abc", "", nil).Code)
		assert.Equal(t, http.StatusBadRequest, do(router, "GET", "/api/counters/execution/0", "", nil).Code)
		assert.Equal(t, http.StatusBadRequest, do(router, "GET", "/api/counters/discovery/not-an-ip", "", nil).Code)
	})
}

func TestCounters_StoreUnavailable(t *testing.T) {
	_, router := setupHandlers(t, brokenStore{}, testConfig(), nil)

	rr := do(router, "GET", "/api/counters/execution/7", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = do(router, "GET", "/api/counters", "", nil)
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestListTools(t *testing.T) {
	t.Run("requires user when not public", func(t *testing.T) {
		_, router := setupHandlers(t, cache.NewLocalCache(time.Minute), testConfig(), nil)

		assert.Equal(t, http.StatusUnauthorized, do(router, "GET", "/tools", "", nil).Code)

		rr := do(router, "GET", "/tools", "", map[string]string{"X-User-ID": "7"})
		require.Equal(t, http.StatusOK, rr.Code)
		body := decode(t, rr)
		assert.Equal(t, float64(3), body["count"])
		assert.Equal(t, []interface{}{"ping", "pong", "wp/get-post"}, body["tools"])
	})

	t.Run("public discovery is rate limited per ip", func(t *testing.T) {
		cfg := testConfig()
		cfg.DiscoveryPublic = true
		_, router := setupHandlers(t, cache.NewLocalCache(time.Minute), cfg, ratelimit.PolicyFuncs{
			DiscoveryFunc: func(string) int { return 1 },
		})

		a := map[string]string{"X-Real-IP": "203.0.113.5"}
		b := map[string]string{"X-Real-IP": "203.0.113.6"}
		assert.Equal(t, http.StatusOK, do(router, "GET", "/tools", "", a).Code)
		assert.Equal(t, http.StatusTooManyRequests, do(router, "GET", "/tools", "", a).Code)
		assert.Equal(t, http.StatusOK, do(router, "GET", "/tools", "", b).Code)
	})

	t.Run("forwarded header ignored from untrusted peer", func(t *testing.T) {
		cfg := testConfig()
		cfg.DiscoveryPublic = true
		cfg.TrustedProxies = "10.0.0.0/8"
		_, router := setupHandlers(t, cache.NewLocalCache(time.Minute), cfg, ratelimit.PolicyFuncs{
			DiscoveryFunc: func(string) int { return 1 },
		})

		// httptest requests come from 192.0.2.1, outside the trusted range.
		assert.Equal(t, http.StatusOK, do(router, "GET", "/tools", "", map[string]string{"X-Forwarded-For": "1.1.1.1"}).Code)
		assert.Equal(t, http.StatusTooManyRequests, do(router, "GET", "/tools", "", map[string]string{"X-Forwarded-For": "2.2.2.2"}).Code)
	})

	t.Run("disabled gateway", func(t *testing.T) {
		cfg := testConfig()
		cfg.ToolsEnabled = false
		_, router := setupHandlers(t, cache.NewLocalCache(time.Minute), cfg, nil)

		assert.Equal(t, http.StatusServiceUnavailable, do(router, "GET", "/tools", "", map[string]string{"X-User-ID": "7"}).Code)
		assert.Equal(t, http.StatusServiceUnavailable, do(router, "POST", "/tools/ping", "", map[string]string{"X-User-ID": "7"}).Code)
	})
}

func TestExecuteTool(t *testing.T) {
	_, router := setupHandlers(t, cache.NewLocalCache(time.Minute), testConfig(), ratelimit.PolicyFuncs{
		ExecutionFunc: func(string, int64) int { return 1 },
	})
	user := map[string]string{"X-User-ID": "7"}

	assert.Equal(t, http.StatusUnauthorized, do(router, "POST", "/tools/ping", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(router, "POST", "/tools/unknown", "", user).Code)

	rr := do(router, "POST", "/tools/wp/get-post", "", user)
	require.Equal(t, http.StatusAccepted, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "wp/get-post", body["tool"])
	assert.Equal(t, float64(7), body["user_id"])

	rr = do(router, "POST", "/tools/wp/get-post", "", user)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))

	assert.Equal(t, http.StatusAccepted, do(router, "POST", "/tools/ping", "", user).Code)
}

func TestExecuteTool_RequestID(t *testing.T) {
	h, _ := setupHandlers(t, cache.NewLocalCache(time.Minute), testConfig(), nil)

	req := httptest.NewRequest("POST", "/tools/ping", nil)
	req.Header.Set("X-User-ID", "7")
	req = mux.SetURLVars(req, map[string]string{"name": "ping"})
	req = req.WithContext(context.WithValue(req.Context(), logging.RequestIDKey, "req-123"))

	rr := httptest.NewRecorder()
	h.ExecuteTool(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "req-123", decode(t, rr)["request_id"])
}

func TestHealthCheck(t *testing.T) {
	t.Run("local store", func(t *testing.T) {
		_, router := setupHandlers(t, cache.NewLocalCache(time.Minute), testConfig(), nil)
		rr := do(router, "GET", "/health", "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "healthy", decode(t, rr)["status"])
	})

	t.Run("unhealthy store", func(t *testing.T) {
		_, router := setupHandlers(t, brokenStore{}, testConfig(), nil)
		rr := do(router, "GET", "/health", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		body := decode(t, rr)
		assert.Equal(t, "unhealthy", body["store_status"])
	})

	t.Run("breaker stats", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
		require.NoError(t, err)
		defer client.Close()

		breaker := circuitbreaker.NewGoBreaker("counter-store-redis", circuitbreaker.DefaultConfig(), nil)
		store := cache.NewBreakerCache(cache.NewRedisCache(client), breaker, "redis")
		_, router := setupHandlers(t, store, testConfig(), nil)

		rr := do(router, "GET", "/health", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		stats := decode(t, rr)["store_breaker"].(map[string]interface{})
		assert.Equal(t, "counter-store-redis", stats["name"])
		assert.Equal(t, "closed", stats["state"])
	})
}

func TestSendJSONResponse(t *testing.T) {
	h := &Handlers{logger: logging.GetGlobalLogger()}

	rr := httptest.NewRecorder()
	h.sendJSONResponse(rr, map[string]string{"message": "success"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "success")
}
