package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func reputationStub(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGate_KnownProxyIsTerminal(t *testing.T) {
	lookups := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lookups++
	}))
	defer srv.Close()

	known := NewSet()
	known.Add("1.2.3.4:1080")

	g := NewGate(known, srv.URL, time.Second, srv.Client())
	assert.Equal(t, Denied, g.Classify(context.Background(), "1.2.3.4"))
	assert.Equal(t, 0, lookups, "known-set hit must not trigger a lookup")
}

func TestGate_ReputationVerdicts(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Verdict
	}{
		{"proxy flagged", `{"status":"success","proxy":true,"hosting":false}`, ProxyLike},
		{"hosting flagged", `{"status":"success","proxy":false,"hosting":true}`, ProxyLike},
		{"clean", `{"status":"success","proxy":false,"hosting":false}`, Clean},
		{"lookup failed status", `{"status":"fail","proxy":true,"hosting":true}`, Clean},
		{"malformed body", `{{{`, Clean},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := reputationStub(t, tt.body)
			g := NewGate(NewSet(), srv.URL, time.Second, srv.Client())
			assert.Equal(t, tt.want, g.Classify(context.Background(), "9.9.9.9"))
		})
	}
}

func TestGate_NormalizesMappedIPv4(t *testing.T) {
	var queried string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queried = r.URL.Path
		fmt.Fprint(w, `{"status":"success","proxy":false,"hosting":false}`)
	}))
	defer srv.Close()

	g := NewGate(NewSet(), srv.URL, time.Second, srv.Client())
	g.Classify(context.Background(), "::ffff:9.9.9.9")
	assert.Equal(t, "/9.9.9.9", queried)
}

func TestGate_TimeoutFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	g := NewGate(NewSet(), srv.URL, 50*time.Millisecond, srv.Client())

	start := time.Now()
	verdict := g.Classify(context.Background(), "9.9.9.9")
	elapsed := time.Since(start)

	assert.Equal(t, Clean, verdict)
	assert.Less(t, elapsed, time.Second, "classification must not hang past the timeout")
}

func TestGate_UnreachableServiceFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	g := NewGate(NewSet(), srv.URL, time.Second, &http.Client{})
	assert.Equal(t, Clean, g.Classify(context.Background(), "9.9.9.9"))
}
