package literature

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/scicheckagent/scicheck/internal/errs"
	"github.com/scicheckagent/scicheck/internal/model"
)

const coreBaseURL = "https://api.core.ac.uk/v3"

// CORE queries the CORE open-access aggregator. Unlike the other providers
// the v3 search endpoint requires an API key and takes its query via POST.
type CORE struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewCORE(client *http.Client, apiKey string) *CORE {
	return &CORE{client: client, baseURL: coreBaseURL, apiKey: apiKey}
}

func (c *CORE) Name() string { return "CORE" }

func (c *CORE) Search(ctx context.Context, keywords []string, limit int) ([]model.Source, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"q":     strings.Join(keywords, " "),
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/works", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Transient("core search", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxProviderBody))
		return nil, errs.Transient("core search", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var result struct {
		Results []struct {
			Title         string `json:"title"`
			Abstract      string `json:"abstract"`
			DownloadURL   string `json:"downloadUrl"`
			YearPublished int    `json:"yearPublished"`
			CitationCount int    `json:"citationCount"`
			Authors       []struct {
				Name string `json:"name"`
			} `json:"authors"`
		} `json:"results"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProviderBody)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	sources := make([]model.Source, 0, len(result.Results))
	for _, work := range result.Results {
		if work.Title == "" {
			continue
		}
		var authors []string
		for _, a := range work.Authors {
			authors = append(authors, a.Name)
		}
		sources = append(sources, model.Source{
			Title:         work.Title,
			Abstract:      truncateAbstract(stripMarkup(work.Abstract)),
			URL:           work.DownloadURL,
			Authors:       strings.Join(authors, ", "),
			Year:          work.YearPublished,
			CitationCount: work.CitationCount,
			Provider:      c.Name(),
		})
	}
	return sources, nil
}
