package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "forwarded for first entry",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"},
			remoteAddr: "10.0.0.2:1234",
			want:       "203.0.113.5",
		},
		{
			name:       "real ip",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			remoteAddr: "10.0.0.2:1234",
			want:       "198.51.100.7",
		},
		{
			name:       "remote addr",
			remoteAddr: "192.0.2.1:5678",
			want:       "192.0.2.1",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.9",
			want:       "192.0.2.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tools", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestUserID(t *testing.T) {
	tests := []struct {
		header string
		want   int64
		ok     bool
	}{
		{"7", 7, true},
		{" 42 ", 42, true},
		{"", 0, false},
		{"abc", 0, false},
		{"0", 0, false},
		{"-3", 0, false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/tools/ping", nil)
		if tt.header != "" {
			req.Header.Set(UserIDHeader, tt.header)
		}
		id, ok := UserID(req)
		assert.Equal(t, tt.ok, ok, "header %q", tt.header)
		assert.Equal(t, tt.want, id, "header %q", tt.header)
	}
}

func TestIPResolver(t *testing.T) {
	resolver, err := NewIPResolver([]string{"10.0.0.0/8", " 192.0.2.10 ", ""})
	require.NoError(t, err)

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "untrusted peer cannot choose its identity",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5", "X-Real-IP": "203.0.113.6"},
			remoteAddr: "198.51.100.1:1234",
			want:       "198.51.100.1",
		},
		{
			name:       "nearest untrusted hop wins",
			headers:    map[string]string{"X-Forwarded-For": "1.1.1.1, 203.0.113.5, 10.0.0.7"},
			remoteAddr: "10.0.0.2:1234",
			want:       "203.0.113.5",
		},
		{
			name:       "single trusted ip",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9"},
			remoteAddr: "192.0.2.10:80",
			want:       "203.0.113.9",
		},
		{
			name:       "real ip behind trusted proxy",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			remoteAddr: "10.0.0.2:1234",
			want:       "198.51.100.7",
		},
		{
			name:       "trusted proxy without headers",
			remoteAddr: "10.0.0.2:1234",
			want:       "10.0.0.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tools", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, resolver.ClientIP(req))
		})
	}

	t.Run("rotating forwarded header keeps one identity", func(t *testing.T) {
		seen := map[string]bool{}
		for _, spoof := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
			req := httptest.NewRequest(http.MethodGet, "/tools", nil)
			req.RemoteAddr = "198.51.100.1:1234"
			req.Header.Set("X-Forwarded-For", spoof)
			seen[resolver.ClientIP(req)] = true
		}
		assert.Len(t, seen, 1)
	})

	t.Run("no trusted proxies honours headers", func(t *testing.T) {
		open, err := NewIPResolver(nil)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/tools", nil)
		req.RemoteAddr = "198.51.100.1:1234"
		req.Header.Set("X-Forwarded-For", "203.0.113.5")
		assert.Equal(t, "203.0.113.5", open.ClientIP(req))
	})
}

func TestNewIPResolver_Invalid(t *testing.T) {
	for _, proxy := range []string{"proxy.local", "10.0.0.0/33"} {
		_, err := NewIPResolver([]string{proxy})
		assert.Error(t, err, proxy)
	}
}

func TestWriteRejection(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteRejection(rec, Decision{Tier: TierGlobal, Limit: 60, Count: 60, Window: time.Minute})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, "global", body["tier"])
	assert.Equal(t, "GLOBAL_LIMIT", body["code"])
	assert.Equal(t, "rate limit exceeded for global", body["error"])
	assert.Equal(t, float64(60), body["retry_after"])
}
