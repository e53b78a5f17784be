package article

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsChecker caches per-host robots.txt data and answers whether a URL may
// be fetched. An unreachable robots.txt allows by default; a missing one
// allows everything.
type robotsChecker struct {
	cache  map[string]*robotstxt.RobotsData
	mu     sync.RWMutex
	client *http.Client
	agent  string
}

func newRobotsChecker(client *http.Client, userAgent string) *robotsChecker {
	return &robotsChecker{
		cache:  make(map[string]*robotstxt.RobotsData),
		client: client,
		agent:  productToken(userAgent),
	}
}

// allowed reports whether the URL may be fetched and any crawl delay the host
// requests.
func (r *robotsChecker) allowed(ctx context.Context, u *url.URL) (bool, time.Duration) {
	data, err := r.robotsFor(ctx, u)
	if err != nil {
		return true, 0
	}
	delay := time.Duration(0)
	if group := data.FindGroup(r.agent); group != nil {
		delay = group.CrawlDelay
	}
	return data.TestAgent(u.Path, r.agent), delay
}

func (r *robotsChecker) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.cache[u.Host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.agent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.cache[u.Host] = data
	r.mu.Unlock()
	return data, nil
}

// productToken reduces a full User-Agent header to the bare product name
// robots.txt groups match against.
func productToken(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.Split(parts[0], "/")[0]
}
