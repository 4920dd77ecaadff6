// Copyright Awele Larsen, 2026. All rights reserved.

package sources

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var arxivAPIBase = "https://export.arxiv.org/api/query"

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	Title string      `xml:"title"`
	Links []arxivLink `xml:"link"`
}

type arxivLink struct {
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

// Arxiv searches the arXiv API by exact title and returns the PDF link
// of the first entry whose title matches the query closely enough.
// arXiv has no DOI search worth using here; title is the only key.
func Arxiv(client *http.Client, title string, delay time.Duration, w io.Writer) string {
	if title == "" {
		return ""
	}
	defer time.Sleep(delay)

	clean := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(title, `"`, ""), "\n", " "))
	u := arxivAPIBase + "?" + url.Values{
		"search_query": {fmt.Sprintf(`ti:"%s"`, clean)},
		"max_results":  {"3"},
		"sortBy":       {"relevance"},
	}.Encode()

	resp, err := client.Get(u)
	if err != nil {
		fmt.Fprintf(w, "  warning: arXiv request failed: %v\n", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		fmt.Fprintf(w, "  warning: parsing arXiv response: %v\n", err)
		return ""
	}

	for _, entry := range feed.Entries {
		entryTitle := strings.ReplaceAll(strings.TrimSpace(entry.Title), "\n", " ")
		if !titlesMatch(clean, entryTitle) {
			continue
		}
		for _, link := range entry.Links {
			if link.Title == "pdf" && link.Href != "" {
				pdfURL := link.Href
				if !strings.HasSuffix(pdfURL, ".pdf") {
					pdfURL += ".pdf"
				}
				return pdfURL
			}
		}
	}

	return ""
}
