package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Verdict classifies the origin of a request.
type Verdict int

const (
	// Clean means no evidence the request came through a relay.
	Clean Verdict = iota
	// ProxyLike means the reputation lookup flagged the IP as a proxy or a
	// hosting provider. Gated operations are refused but the request itself
	// proceeds.
	ProxyLike
	// Denied means the IP is in the known-proxy set; the request is rejected
	// outright without a reputation lookup.
	Denied
)

type reputationReply struct {
	Status  string `json:"status"`
	Proxy   bool   `json:"proxy"`
	Hosting bool   `json:"hosting"`
}

// Gate classifies request IPs as proxy-like. A hit in the known-proxy set is
// terminal; otherwise a bounded-time reputation lookup decides, and any lookup
// failure — timeout, network error, malformed body — counts as Clean. The
// reputation service being down must never block a legitimate registration.
type Gate struct {
	known   *Set
	baseURL string
	timeout time.Duration
	client  *http.Client
}

func NewGate(known *Set, baseURL string, timeout time.Duration, client *http.Client) *Gate {
	if client == nil {
		client = &http.Client{}
	}
	return &Gate{known: known, baseURL: baseURL, timeout: timeout, client: client}
}

// NormalizeIP strips the IPv4-in-IPv6 prefix and surrounding whitespace.
func NormalizeIP(ip string) string {
	return strings.TrimSpace(strings.TrimPrefix(ip, "::ffff:"))
}

// Classify returns the verdict for a request IP.
func (g *Gate) Classify(ctx context.Context, ip string) Verdict {
	cleanIP := NormalizeIP(ip)

	if g.known.ContainsHost(cleanIP) {
		return Denied
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/"+cleanIP+"?fields=status,proxy,hosting", nil)
	if err != nil {
		return Clean
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Clean
	}
	defer resp.Body.Close()

	var reply reputationReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return Clean
	}

	if reply.Status == "success" && (reply.Proxy || reply.Hosting) {
		return ProxyLike
	}
	return Clean
}
