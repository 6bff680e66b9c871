// Package scrape fetches raw listing pages for the ingestion pipeline.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/kronos-automations/lead-engine/internal/common"
)

// userAgents is the fixed rotation pool. One entry is drawn uniformly per
// attempt so successive fetches don't share a browser signature.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
}

type Fetcher struct {
	client   *http.Client
	attempts int
	delay    time.Duration
	log      *slog.Logger
}

// NewFetcher builds a fetcher with the campaign retry contract: up to
// attempts tries with a fixed inter-attempt delay.
func NewFetcher(client *http.Client, attempts int, delay time.Duration, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if attempts <= 0 {
		attempts = 5
	}
	if delay <= 0 {
		delay = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{client: client, attempts: attempts, delay: delay, log: log}
}

// Fetch GETs url with a rotated User-Agent, retrying transport failures and
// non-2xx responses. After the final attempt it returns ErrFetchFailure; the
// scrape run ends there and the next scheduled trigger retries from scratch.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			f.log.Info("scrape.fetch.ok", "url", url, "attempt", attempt, "bytes", len(body))
			return body, nil
		}
		lastErr = err
		f.log.Warn("scrape.fetch.attempt_failed",
			"url", url, "attempt", attempt, "of", f.attempts, "error", err)

		if attempt == f.attempts {
			break
		}
		timer := time.NewTimer(f.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	f.log.Error("scrape.fetch.exhausted", "url", url, "attempts", f.attempts, "error", lastErr)
	return nil, fmt.Errorf("%w: %s after %d attempts: %v", common.ErrFetchFailure, url, f.attempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgents[rand.IntN(len(userAgents))])

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.log.Warn("scrape.fetch.body_close_error", "error", cerr)
		}
	}()

	if resp.StatusCode/100 != 2 {
		// Drain so the connection can be reused across attempts.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
