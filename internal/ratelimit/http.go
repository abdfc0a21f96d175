package ratelimit

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"toolgate/internal/common/errors"
)

// UserIDHeader carries the authenticated user id set by the upstream proxy
const UserIDHeader = "X-User-ID"

// IPResolver derives the network identity of a request. Forwarding headers
// are honoured only when the peer is a trusted proxy. A resolver without
// trusted proxies honours them from any peer.
type IPResolver struct {
	trusted []*net.IPNet
}

// NewIPResolver parses proxies, each an IP or a CIDR range
func NewIPResolver(proxies []string) (*IPResolver, error) {
	r := &IPResolver{}
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", p)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			p = fmt.Sprintf("%s/%d", ip.String(), bits)
		}
		_, network, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		r.trusted = append(r.trusted, network)
	}
	return r, nil
}

// ClientIP returns the network identity of a request using r's trust list
func (r *IPResolver) ClientIP(req *http.Request) string {
	remote := remoteHost(req)
	if len(r.trusted) == 0 {
		return forwardedIP(req, remote)
	}
	if !r.isTrusted(remote) {
		return remote
	}

	// Walk X-Forwarded-For from the nearest hop and stop at the first
	// address that is not one of our proxies.
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !r.isTrusted(hop) {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(req.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return remote
}

func (r *IPResolver) isTrusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, network := range r.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the network identity of a request: the first
// X-Forwarded-For entry, then X-Real-IP, then the remote address.
func ClientIP(r *http.Request) string {
	return forwardedIP(r, remoteHost(r))
}

func forwardedIP(r *http.Request, remote string) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return remote
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// UserID parses the X-User-ID header. ok is false when it is missing or not
// a positive integer.
func UserID(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// RejectionResponse is the body of a rate limited answer
type RejectionResponse struct {
	Allowed    bool   `json:"allowed"`
	Error      string `json:"error"`
	Code       string `json:"code"`
	Tier       string `json:"tier"`
	Limit      int64  `json:"limit"`
	RetryAfter int    `json:"retry_after"`
}

// WriteRejection answers a rejected decision with Retry-After and
// X-RateLimit-Limit set to the window and the limit of the rejecting tier
func WriteRejection(w http.ResponseWriter, d Decision) {
	appErr := errors.RateLimitError(d.Tier).
		WithCode(strings.ToUpper(d.Tier) + "_LIMIT").
		WithContext("limit", d.Limit).
		WithContext("count", d.Count)
	retryAfter := int(d.Window.Seconds())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(errors.HTTPStatus(appErr))

	_ = json.NewEncoder(w).Encode(RejectionResponse{
		Error:      appErr.Message,
		Code:       appErr.Code,
		Tier:       d.Tier,
		Limit:      d.Limit,
		RetryAfter: retryAfter,
	})
}
