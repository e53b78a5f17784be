package literature

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/scicheckagent/scicheck/internal/model"
)

const crossrefBaseURL = "https://api.crossref.org"

// Crossref queries the Crossref works API. No key needed; the polite pool
// only asks for an identifying User-Agent, which the shared client carries.
type Crossref struct {
	client  *http.Client
	baseURL string
}

func NewCrossref(client *http.Client) *Crossref {
	return &Crossref{client: client, baseURL: crossrefBaseURL}
}

func (c *Crossref) Name() string { return "Crossref" }

func (c *Crossref) Search(ctx context.Context, keywords []string, limit int) ([]model.Source, error) {
	// Quoting each keyword keeps Crossref's relevance ranking from matching
	// on word fragments.
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = `"` + kw + `"`
	}
	q := url.Values{}
	q.Set("query.bibliographic", strings.Join(quoted, " AND "))
	q.Set("rows", fmt.Sprintf("%d", limit))
	q.Set("select", "title,abstract,URL,author,published,is-referenced-by-count")

	var resp struct {
		Message struct {
			Items []struct {
				Title    []string `json:"title"`
				Abstract string   `json:"abstract"`
				URL      string   `json:"URL"`
				Author   []struct {
					Given  string `json:"given"`
					Family string `json:"family"`
				} `json:"author"`
				Published struct {
					DateParts [][]int `json:"date-parts"`
				} `json:"published"`
				ReferencedBy int `json:"is-referenced-by-count"`
			} `json:"items"`
		} `json:"message"`
	}

	if err := getJSON(ctx, c.client, c.baseURL+"/works?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("crossref search: %w", err)
	}

	sources := make([]model.Source, 0, len(resp.Message.Items))
	for _, item := range resp.Message.Items {
		if len(item.Title) == 0 || item.Title[0] == "" {
			continue
		}
		var authors []string
		for _, a := range item.Author {
			authors = append(authors, strings.TrimSpace(a.Given+" "+a.Family))
		}
		year := 0
		if len(item.Published.DateParts) > 0 && len(item.Published.DateParts[0]) > 0 {
			year = item.Published.DateParts[0][0]
		}
		sources = append(sources, model.Source{
			Title:         item.Title[0],
			Abstract:      truncateAbstract(stripMarkup(item.Abstract)),
			URL:           item.URL,
			Authors:       strings.Join(authors, ", "),
			Year:          year,
			CitationCount: item.ReferencedBy,
			Provider:      c.Name(),
		})
	}
	return sources, nil
}
