package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/phrazzld/crm-core/internal/api/shared"
	"github.com/phrazzld/crm-core/internal/platform/logger"
	"github.com/phrazzld/crm-core/internal/ratelimit"
	"github.com/phrazzld/crm-core/internal/redact"
)

// Rate limit response headers
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
)

// KeyConfig selects how the admission key of a request is derived.
type KeyConfig struct {
	// Header, when set and present on the request, identifies the client.
	Header string
	// TrustForwardedFor uses the first X-Forwarded-For entry before
	// falling back to the remote address.
	TrustForwardedFor bool
}

// ClientKey returns the admission key of r.
func (c KeyConfig) ClientKey(r *http.Request) string {
	if c.Header != "" {
		if v := strings.TrimSpace(r.Header.Get(c.Header)); v != "" {
			return v
		}
	}
	if c.TrustForwardedFor {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit admits requests through limiter and answers 429 once a client
// has used its quota for the current window.
func RateLimit(limiter *ratelimit.Limiter, keys KeyConfig) func(http.Handler) http.Handler {
	limit := strconv.Itoa(limiter.Limit())
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keys.ClientKey(r)

			if !limiter.Allow(key) {
				remaining := limiter.Remaining(key)
				w.Header().Set(HeaderRateLimitLimit, limit)
				w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))

				logger.FromContext(r.Context()).Warn("request rejected by rate limit",
					"client_key", redact.Key(key),
					"limit", limiter.Limit())
				shared.RespondWithError(w, r, http.StatusTooManyRequests, fmt.Sprintf(
					"Rate limit excedido. Límite: %d peticiones por minuto. Restantes: %d",
					limiter.Limit(), remaining))
				return
			}

			w.Header().Set(HeaderRateLimitLimit, limit)
			w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(limiter.Remaining(key)))
			next.ServeHTTP(w, r.WithContext(shared.WithClientKey(r.Context(), key)))
		})
	}
}
