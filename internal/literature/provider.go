// Package literature searches scholarly databases for evidence about a claim
// and synthesizes the results into an externally grounded verdict.
package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/scicheckagent/scicheck/internal/errs"
	"github.com/scicheckagent/scicheck/internal/model"
)

// Provider searches one scholarly database. Implementations must tolerate
// partial records; a result without a URL is still a result.
type Provider interface {
	Name() string
	Search(ctx context.Context, keywords []string, limit int) ([]model.Source, error)
}

// maxProviderBody bounds provider response reads.
const maxProviderBody = 4 << 20

// getJSON performs a GET against a provider endpoint and decodes the JSON
// body into v. Non-2xx statuses come back as transient errors so callers can
// keep going with the other providers.
func getJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errs.Transient("provider request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxProviderBody))
		return errs.Transient("provider request", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProviderBody)).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// stripMarkup removes angle-bracket markup from abstract fields. Crossref
// ships abstracts as JATS XML and some repositories embed stray HTML.
func stripMarkup(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// truncateAbstract keeps prompts bounded when repositories return full-text
// sized abstracts.
func truncateAbstract(s string) string {
	const max = 1500
	if len(s) > max {
		return s[:max]
	}
	return s
}
