// Copyright Awele Larsen, 2026. All rights reserved.

package sources

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSciHubMirrors is tried in order; mirrors come and go, so the
// list is configurable.
var DefaultSciHubMirrors = []string{
	"https://sci-hub.se",
	"https://sci-hub.st",
	"https://sci-hub.ru",
}

// SciHub asks each mirror for the article page of a DOI and extracts
// the embedded PDF URL. Returns the first URL found, or "".
func SciHub(client *http.Client, doi string, mirrors []string, delay time.Duration, w io.Writer) string {
	if doi == "" {
		return ""
	}
	if len(mirrors) == 0 {
		mirrors = DefaultSciHubMirrors
	}

	for _, mirror := range mirrors {
		u := scihubMirror(client, mirror, doi, w)
		time.Sleep(delay)
		if u != "" {
			return u
		}
	}
	return ""
}

func scihubMirror(client *http.Client, mirror, doi string, w io.Writer) string {
	req, err := http.NewRequest(http.MethodGet, mirror+"/"+doi, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", scholarUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(w, "  warning: Sci-Hub mirror %s unreachable: %v\n", mirror, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	var src string
	doc.Find("iframe#pdf, embed#pdf, iframe, embed").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if s, ok := sel.Attr("src"); ok && s != "" {
			src = s
			return false
		}
		return true
	})
	if src == "" {
		return ""
	}
	return scihubNormalize(mirror, src)
}

// scihubNormalize resolves the scheme-relative and path-relative src
// values mirrors emit into an absolute URL.
func scihubNormalize(mirror, src string) string {
	src = strings.TrimSpace(src)
	switch {
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src
	case strings.HasPrefix(src, "/"):
		return mirror + src
	default:
		base, err := url.Parse(mirror + "/")
		if err != nil {
			return ""
		}
		rel, err := url.Parse(src)
		if err != nil {
			return ""
		}
		return base.ResolveReference(rel).String()
	}
}
