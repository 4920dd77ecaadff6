// Copyright Awele Larsen, 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/awlarsen/paperfetch/internal/httputil"
	"github.com/awlarsen/paperfetch/pkg/types"
)

var coreAPIBase = "https://api.core.ac.uk/v3/search/works"

// CORE JSON structures (subset).
type coreSearchResponse struct {
	Results []coreWork `json:"results"`
}

type coreWork struct {
	DownloadURL        string     `json:"downloadUrl"`
	Links              []coreLink `json:"links"`
	SourceFulltextURLs []string   `json:"sourceFulltextUrls"`
}

type coreLink struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// CORE searches CORE.ac.uk for a PDF URL by DOI, falling back to a
// word-based title query. HTTP 429 is retried with bounded exponential
// backoff; exhausting the retries returns rateLimited=true so the
// pipeline can rotate identity and retry the paper, rather than the
// adapter sleeping indefinitely.
func CORE(ctx context.Context, client *http.Client, doi, title string, cfg types.COREConfig, w io.Writer) (pdfURL string, rateLimited bool) {
	if doi == "" && title == "" {
		return "", false
	}

	var queries []string
	if doi != "" {
		queries = append(queries, "doi:"+doi)
	}
	if title != "" {
		if words := titleQueryWords(title, 10); len(words) != 0 {
			queries = append(queries, "title:("+strings.Join(words, " ")+")")
		}
	}

	for _, query := range queries {
		u := coreAPIBase + "?" + url.Values{"q": {query}, "limit": {"5"}}.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			continue
		}
		req.Header.Set("Accept", "application/json")
		if cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
		}

		resp, limited, err := httputil.DoWithBackoff(ctx, client, req, cfg.MaxRetries, cfg.BackoffFactor)
		time.Sleep(cfg.Delay)
		if err != nil {
			fmt.Fprintf(w, "  warning: CORE request failed: %v\n", err)
			continue
		}
		if limited {
			fmt.Fprintln(w, "  warning: CORE rate limited, exhausted retries")
			return "", true
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			continue
		}

		var search coreSearchResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&search)
		resp.Body.Close()
		if decodeErr != nil {
			fmt.Fprintf(w, "  warning: parsing CORE response: %v\n", decodeErr)
			continue
		}

		for _, work := range search.Results {
			if u := work.pdfURL(); u != "" {
				return u, false
			}
		}
	}

	return "", false
}

// pdfURL extracts a download URL from a CORE work, in field preference
// order: downloadUrl, download links, source fulltext URLs, PDF-ish links.
func (c coreWork) pdfURL() string {
	if c.DownloadURL != "" {
		return c.DownloadURL
	}
	for _, l := range c.Links {
		if l.Type == "download" && l.URL != "" {
			return l.URL
		}
	}
	for _, u := range c.SourceFulltextURLs {
		if u != "" && looksLikePDF(u) {
			return u
		}
	}
	for _, l := range c.Links {
		if l.URL != "" && looksLikePDF(l.URL) {
			return l.URL
		}
	}
	return ""
}
