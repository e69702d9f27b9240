package worker

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Conservative pacing used when the config leaves the limit unset.
// Regional grant portals tolerate very little load.
const (
	fallbackPerSecond = 2.0
	fallbackBurst     = 4
)

// Limiter paces outbound requests per host so small municipal sites
// are not hammered by the PDF harvest. Each host gets its own token
// bucket, created on first contact.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*rate.Limiter
	perSecond rate.Limit
	burst     int
}

// NewLimiter creates a limiter handing out requestsPerSecond tokens
// per host with the given burst size
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = fallbackPerSecond
	}
	if burst <= 0 {
		burst = fallbackBurst
	}

	return &Limiter{
		buckets:   make(map[string]*rate.Limiter),
		perSecond: rate.Limit(requestsPerSecond),
		burst:     burst,
	}
}

// Wait blocks until the host of rawURL has a token available
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}
	return l.bucketFor(host).Wait(ctx)
}

// WaitWithDelay waits for a token and then honors an extra crawl
// delay, typically the one advertised in the site's robots.txt
func (l *Limiter) WaitWithDelay(ctx context.Context, rawURL string, crawlDelay time.Duration) error {
	if err := l.Wait(ctx, rawURL); err != nil {
		return err
	}
	if crawlDelay <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(crawlDelay):
		return nil
	}
}

// Allow reports whether a request to the host may go out right now,
// consuming a token when it may
func (l *Limiter) Allow(rawURL string) bool {
	host, err := hostOf(rawURL)
	if err != nil {
		return false
	}
	return l.bucketFor(host).Allow()
}

func (l *Limiter) bucketFor(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[host]
	if !ok {
		bucket = rate.NewLimiter(l.perSecond, l.burst)
		l.buckets[host] = bucket
	}
	return bucket
}

// hostOf reduces a URL to its host. Casing is folded so links written
// as WWW.REGIONE.IT and www.regione.it share one bucket.
func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return strings.ToLower(parsed.Host), nil
}
