package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/crm-core/internal/api/shared"
	"github.com/phrazzld/crm-core/internal/ratelimit"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name    string
		cfg     KeyConfig
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:   "remote address host",
			remote: "192.0.2.1:5555",
			want:   "192.0.2.1",
		},
		{
			name:   "remote address without port",
			remote: "192.0.2.1",
			want:   "192.0.2.1",
		},
		{
			name:    "api key header wins",
			cfg:     KeyConfig{Header: "X-Api-Key", TrustForwardedFor: true},
			headers: map[string]string{"X-Api-Key": "k-123", "X-Forwarded-For": "198.51.100.7"},
			remote:  "192.0.2.1:5555",
			want:    "k-123",
		},
		{
			name:    "forwarded for when trusted",
			cfg:     KeyConfig{Header: "X-Api-Key", TrustForwardedFor: true},
			headers: map[string]string{"X-Forwarded-For": " 198.51.100.7 , 10.0.0.1"},
			remote:  "192.0.2.1:5555",
			want:    "198.51.100.7",
		},
		{
			name:    "forwarded for ignored when untrusted",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.7"},
			remote:  "192.0.2.1:5555",
			want:    "192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, tt.cfg.ClientKey(req))
		})
	}
}

func TestRateLimit_AdmitsThenRejects(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{MaxRequests: 2, Window: time.Minute})

	var seenKey string
	handler := RateLimit(limiter, KeyConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenKey = shared.GetClientKey(r.Context())
		okHandler(w, r)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/informes/clientes", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get(HeaderRateLimitLimit))
	assert.Equal(t, "1", first.Header().Get(HeaderRateLimitRemaining))
	assert.Equal(t, "203.0.113.9", seenKey)

	second := send()
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get(HeaderRateLimitRemaining))

	third := send()
	require.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Equal(t, "0", third.Header().Get(HeaderRateLimitRemaining))

	var body map[string]any
	require.NoError(t, json.Unmarshal(third.Body.Bytes(), &body))
	assert.Equal(t, "Rate limit excedido. Límite: 2 peticiones por minuto. Restantes: 0", body["error"])
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{MaxRequests: 1, Window: time.Minute})
	handler := RateLimit(limiter, KeyConfig{Header: "X-Api-Key"})(http.HandlerFunc(okHandler))

	for _, key := range []string{"a", "b", "c"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Api-Key", key)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, key)
	}
	assert.Equal(t, 3, limiter.Len())
}
