// Package article fetches web pages politely and reduces them to the visible
// text a claim extraction can run on.
package article

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/scicheckagent/scicheck/internal/errs"
	"github.com/scicheckagent/scicheck/internal/model"
)

// maxRedirects bounds redirect chains on article fetches.
const maxRedirects = 5

// minContentLength rejects pages whose visible text is too thin to hold any
// claims, typically bot walls and empty shells.
const minContentLength = 200

// ErrDisallowed marks a fetch the target host's robots.txt forbids.
var ErrDisallowed = fmt.Errorf("article: fetch disallowed by robots.txt")

// Fetcher downloads article pages and extracts their readable text.
type Fetcher struct {
	client      *http.Client
	robots      *robotsChecker
	userAgent   string
	maxBody     int64
	checkRobots bool
	logger      *zap.Logger
}

// NewFetcher returns a Fetcher configured from the HTTP section. A nil logger
// falls back to a no-op logger.
func NewFetcher(cfg model.HTTPConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 2_000_000
	}
	return &Fetcher{
		client:      client,
		robots:      newRobotsChecker(client, cfg.UserAgent),
		userAgent:   cfg.UserAgent,
		maxBody:     maxBody,
		checkRobots: cfg.CheckRobots,
		logger:      logger,
	}
}

// FetchText downloads the page at rawURL and returns its visible text.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("article: invalid URL %q", rawURL)
	}

	if f.checkRobots {
		allowed, delay := f.robots.allowed(ctx, u)
		if !allowed {
			return "", ErrDisallowed
		}
		if delay > 0 {
			f.logger.Debug("honoring crawl delay", zap.String("host", u.Host), zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", errs.Transient("fetch article", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errs.Transient("fetch article", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return "", errs.Transient("read article body", err)
	}

	text, err := ExtractText(string(body))
	if err != nil {
		return "", err
	}
	if len(text) < minContentLength {
		return "", fmt.Errorf("article: page yielded only %d characters of text", len(text))
	}
	return text, nil
}

// skip lists HTML elements whose subtrees never contain article text.
var skip = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"nav": true, "header": true, "footer": true, "aside": true,
	"form": true, "iframe": true, "svg": true,
}

// ExtractText parses HTML and returns its visible text, block elements
// separated by newlines.
func ExtractText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skip[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElement(n.Data) && b.Len() > 0 {
			b.WriteByte('\n')
		}
	}
	walk(doc)

	return strings.TrimSpace(b.String()), nil
}

func blockElement(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "li", "h1", "h2", "h3", "h4", "h5", "h6", "br", "tr":
		return true
	}
	return false
}
