package literature

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/scicheckagent/scicheck/internal/model"
)

const pubmedBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMed queries NCBI E-utilities: an esearch call for PMIDs followed by one
// esummary call for the metadata. Abstracts are not available through the
// JSON summary endpoint, so PubMed results carry title metadata only.
type PubMed struct {
	client  *http.Client
	baseURL string
}

func NewPubMed(client *http.Client) *PubMed {
	return &PubMed{client: client, baseURL: pubmedBaseURL}
}

func (p *PubMed) Name() string { return "PubMed" }

func (p *PubMed) Search(ctx context.Context, keywords []string, limit int) ([]model.Source, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", strings.Join(keywords, " AND "))
	q.Set("retmax", fmt.Sprintf("%d", limit))
	q.Set("retmode", "json")

	var search struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := getJSON(ctx, p.client, p.baseURL+"/esearch.fcgi?"+q.Encode(), nil, &search); err != nil {
		return nil, fmt.Errorf("pubmed esearch: %w", err)
	}
	ids := search.ESearchResult.IDList
	if len(ids) == 0 {
		return nil, nil
	}

	sq := url.Values{}
	sq.Set("db", "pubmed")
	sq.Set("id", strings.Join(ids, ","))
	sq.Set("retmode", "json")

	var summary struct {
		Result map[string]struct {
			Title   string `json:"title"`
			PubDate string `json:"pubdate"`
			Authors []struct {
				Name string `json:"name"`
			} `json:"authors"`
		} `json:"result"`
	}
	if err := getJSON(ctx, p.client, p.baseURL+"/esummary.fcgi?"+sq.Encode(), nil, &summary); err != nil {
		return nil, fmt.Errorf("pubmed esummary: %w", err)
	}

	var sources []model.Source
	for _, id := range ids {
		doc, ok := summary.Result[id]
		if !ok || doc.Title == "" {
			continue
		}
		var authors []string
		for _, a := range doc.Authors {
			authors = append(authors, a.Name)
		}
		year := 0
		if len(doc.PubDate) >= 4 {
			fmt.Sscanf(doc.PubDate[:4], "%d", &year)
		}
		sources = append(sources, model.Source{
			Title:    doc.Title,
			URL:      "https://pubmed.ncbi.nlm.nih.gov/" + id + "/",
			Authors:  strings.Join(authors, ", "),
			Year:     year,
			Provider: p.Name(),
		})
	}
	return sources, nil
}
