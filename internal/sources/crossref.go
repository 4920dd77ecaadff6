// Copyright Awele Larsen, 2026. All rights reserved.

package sources

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/awlarsen/paperfetch/pkg/types"
)

var (
	crossrefAPIBase = "https://api.crossref.org/works/"
	doiOrgBase      = "https://doi.org/"
)

// Crossref JSON structures (subset).
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Link     []crossrefLink `json:"link"`
	Resource struct {
		Primary struct {
			URL string `json:"URL"`
		} `json:"primary"`
	} `json:"resource"`
}

type crossrefLink struct {
	ContentType string `json:"content-type"`
	URL         string `json:"URL"`
}

// Crossref resolves a DOI to a PDF URL in two steps: content
// negotiation against doi.org requesting application/pdf, then the
// Crossref works API looking for PDF links in the metadata.
func Crossref(client *http.Client, doi string, cfg types.CrossrefConfig, w io.Writer) string {
	if doi == "" {
		return ""
	}

	if u := crossrefNegotiate(client, doi, cfg); u != "" {
		return u
	}
	time.Sleep(cfg.Delay)

	u := crossrefAPI(client, doi, cfg, w)
	time.Sleep(cfg.Delay)
	return u
}

// crossrefNegotiate issues a HEAD to doi.org asking for a PDF
// representation and follows redirects, accepting the final URL when it
// either serves application/pdf or looks like a PDF.
func crossrefNegotiate(client *http.Client, doi string, cfg types.CrossrefConfig) string {
	req, err := http.NewRequest(http.MethodHead, doiOrgBase+doi, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Accept", "application/pdf")
	req.Header.Set("User-Agent", crossrefUserAgent(cfg))

	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	if strings.Contains(resp.Header.Get("Content-Type"), "application/pdf") {
		return final
	}
	if resp.StatusCode == http.StatusOK && final != doiOrgBase+doi && looksLikePDF(final) {
		return final
	}
	return ""
}

// crossrefAPI looks for PDF links in the Crossref work metadata.
func crossrefAPI(client *http.Client, doi string, cfg types.CrossrefConfig, w io.Writer) string {
	req, err := http.NewRequest(http.MethodGet, crossrefAPIBase+doi, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", crossrefUserAgent(cfg))

	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(w, "  warning: Crossref request failed: %v\n", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		fmt.Fprintf(w, "  warning: parsing Crossref response: %v\n", err)
		return ""
	}

	for _, link := range cr.Message.Link {
		if strings.Contains(link.ContentType, "pdf") && link.URL != "" {
			return link.URL
		}
	}
	if u := cr.Message.Resource.Primary.URL; strings.HasSuffix(u, ".pdf") {
		return u
	}
	return ""
}

// crossrefUserAgent identifies the client to the Crossref polite pool.
func crossrefUserAgent(cfg types.CrossrefConfig) string {
	ua := "paperfetch/1.0"
	if cfg.Mailto != "" {
		ua += " (mailto:" + cfg.Mailto + ")"
	}
	return ua
}
