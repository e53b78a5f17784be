package literature

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/scicheckagent/scicheck/internal/model"
)

const semanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"

// SemanticScholar queries the Semantic Scholar Graph API. An API key raises
// the rate limit but is not required.
type SemanticScholar struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewSemanticScholar(client *http.Client, apiKey string) *SemanticScholar {
	return &SemanticScholar{client: client, baseURL: semanticScholarBaseURL, apiKey: apiKey}
}

func (s *SemanticScholar) Name() string { return "Semantic Scholar" }

func (s *SemanticScholar) Search(ctx context.Context, keywords []string, limit int) ([]model.Source, error) {
	q := url.Values{}
	q.Set("query", strings.Join(keywords, " "))
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("fields", "title,abstract,url,year,citationCount,authors,externalIds")

	var resp struct {
		Data []struct {
			Title         string `json:"title"`
			Abstract      string `json:"abstract"`
			URL           string `json:"url"`
			Year          int    `json:"year"`
			CitationCount int    `json:"citationCount"`
			Authors       []struct {
				Name string `json:"name"`
			} `json:"authors"`
			ExternalIDs struct {
				DOI   string `json:"DOI"`
				ArXiv string `json:"ArXiv"`
			} `json:"externalIds"`
		} `json:"data"`
	}

	headers := map[string]string{}
	if s.apiKey != "" {
		headers["x-api-key"] = s.apiKey
	}
	if err := getJSON(ctx, s.client, s.baseURL+"/paper/search?"+q.Encode(), headers, &resp); err != nil {
		return nil, fmt.Errorf("semantic scholar search: %w", err)
	}

	sources := make([]model.Source, 0, len(resp.Data))
	for _, paper := range resp.Data {
		if paper.Title == "" {
			continue
		}
		link := paper.URL
		// The search endpoint omits the landing URL for some records; fall
		// back to a resolvable identifier.
		if link == "" && paper.ExternalIDs.DOI != "" {
			link = "https://doi.org/" + paper.ExternalIDs.DOI
		}
		if link == "" && paper.ExternalIDs.ArXiv != "" {
			link = "https://arxiv.org/abs/" + paper.ExternalIDs.ArXiv
		}
		var authors []string
		for _, a := range paper.Authors {
			authors = append(authors, a.Name)
		}
		sources = append(sources, model.Source{
			Title:         paper.Title,
			Abstract:      truncateAbstract(paper.Abstract),
			URL:           link,
			Authors:       strings.Join(authors, ", "),
			Year:          paper.Year,
			CitationCount: paper.CitationCount,
			Provider:      s.Name(),
		})
	}
	return sources, nil
}
