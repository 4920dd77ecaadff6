// Copyright Awele Larsen, 2026. All rights reserved.

package sources

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

// Unpaywall JSON structures (subset).
type unpaywallWork struct {
	BestOALocation *unpaywallLocation  `json:"best_oa_location"`
	OALocations    []unpaywallLocation `json:"oa_locations"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
	URL       string `json:"url"`
}

// Unpaywall looks up an open access PDF URL for a DOI. The contact
// email is required by the Unpaywall API; callers skip the phase when
// it is not configured.
func Unpaywall(client *http.Client, doi, email string, delay time.Duration, w io.Writer) string {
	if doi == "" || email == "" {
		return ""
	}
	defer time.Sleep(delay)

	endpoint := unpaywallAPIBase + url.PathEscape(doi) + "?email=" + url.QueryEscape(email)
	resp, err := client.Get(endpoint)
	if err != nil {
		fmt.Fprintf(w, "  warning: Unpaywall request failed: %v\n", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var work unpaywallWork
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		fmt.Fprintf(w, "  warning: parsing Unpaywall response: %v\n", err)
		return ""
	}

	if loc := work.BestOALocation; loc != nil && loc.URLForPDF != "" {
		return loc.URLForPDF
	}
	for _, loc := range work.OALocations {
		if loc.URLForPDF != "" {
			return loc.URLForPDF
		}
	}
	return ""
}
