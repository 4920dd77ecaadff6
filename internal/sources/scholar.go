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

var scholarBase = "https://scholar.google.com"

const scholarUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scholar searches Google Scholar for a title and returns the eprint
// link from the first matching result. Scholar aggressively rate limits
// automated clients; a 429 or a captcha interstitial is reported as
// rateLimited so the caller can rotate its exit IP before retrying.
func Scholar(client *http.Client, title string, delay time.Duration, w io.Writer) (pdfURL string, rateLimited bool) {
	if title == "" {
		return "", false
	}
	defer time.Sleep(delay)

	q := url.Values{"q": {title}, "hl": {"en"}}
	req, err := http.NewRequest(http.MethodGet, scholarBase+"/scholar?"+q.Encode(), nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", scholarUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(w, "  warning: Scholar request failed: %v\n", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", true
	}
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		fmt.Fprintf(w, "  warning: parsing Scholar page: %v\n", err)
		return "", false
	}

	if scholarBlocked(doc) {
		return "", true
	}

	var found string
	doc.Find("div.gs_r").EachWithBreak(func(_ int, result *goquery.Selection) bool {
		heading := strings.TrimSpace(result.Find("h3.gs_rt").Text())
		if heading == "" || !titlesMatch(heading, title) {
			return true
		}
		href, ok := result.Find("div.gs_ggs a").Attr("href")
		if ok && href != "" {
			found = href
			return false
		}
		return true
	})
	return found, false
}

// scholarBlocked detects the captcha interstitial Scholar serves when
// it decides the client is a bot.
func scholarBlocked(doc *goquery.Document) bool {
	if doc.Find("#gs_captcha_ccl, #recaptcha, form#captcha-form").Length() > 0 {
		return true
	}
	body := doc.Find("body").Text()
	return strings.Contains(body, "unusual traffic") ||
		strings.Contains(body, "not a robot")
}
