package proxy

import (
	"bufio"
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var schemePrefix = regexp.MustCompile(`(?i)^(socks4|socks5|http|https)://`)

// CleanLine normalizes one line from a proxy-list feed. It strips known scheme
// prefixes and requires a host:port shape; anything else is rejected with an
// empty result.
func CleanLine(line string) string {
	cleaned := schemePrefix.ReplaceAllString(strings.TrimSpace(line), "")
	if !strings.Contains(cleaned, ":") {
		return ""
	}
	return cleaned
}

// Refresher periodically fetches public proxy-list feeds and merges their
// entries into a shared Set. Each source fails independently; a feed that is
// down only costs that refresh its entries.
type Refresher struct {
	set      *Set
	feeds    []string
	interval time.Duration
	client   *http.Client
}

func NewRefresher(set *Set, feeds []string, interval, fetchTimeout time.Duration) *Refresher {
	return &Refresher{
		set:      set,
		feeds:    feeds,
		interval: interval,
		client:   &http.Client{Timeout: fetchTimeout},
	}
}

// Start refreshes once immediately, then on every interval tick until done is
// closed.
func (r *Refresher) Start(done chan struct{}) {
	go func() {
		r.RefreshOnce(context.Background())
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.RefreshOnce(context.Background())
			case <-done:
				return
			}
		}
	}()
}

// RefreshOnce fetches every feed and merges the results into the set.
func (r *Refresher) RefreshOnce(ctx context.Context) {
	for _, url := range r.feeds {
		if err := r.fetchFeed(ctx, url); err != nil {
			slog.Warn("proxy feed fetch failed", "url", url, "error", err)
		}
	}
	slog.Info("proxy list updated", "count", r.set.Len())
}

func (r *Refresher) fetchFeed(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if cleaned := CleanLine(scanner.Text()); cleaned != "" {
			r.set.Add(cleaned)
		}
	}
	return scanner.Err()
}
