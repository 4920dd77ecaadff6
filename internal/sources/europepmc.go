// Copyright Awele Larsen, 2026. All rights reserved.

package sources

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	europePMCSearchBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"
	europePMCPDFBase    = "https://www.ebi.ac.uk/europepmc/webservices/rest/"
)

// EuropePMC JSON structures (subset).
type epmcSearchResponse struct {
	ResultList struct {
		Result []epmcResult `json:"result"`
	} `json:"resultList"`
}

type epmcResult struct {
	PMCID           string `json:"pmcid"`
	FullTextURLList struct {
		FullTextURL []epmcFullTextURL `json:"fullTextUrl"`
	} `json:"fullTextUrlList"`
}

type epmcFullTextURL struct {
	DocumentStyle string `json:"documentStyle"`
	Availability  string `json:"availability"`
	URL           string `json:"url"`
}

// EuropePMC searches EuropePMC for a PDF URL by DOI, falling back to a
// quoted title query. Records with a PMC ID resolve to the full-text
// PDF endpoint directly.
func EuropePMC(client *http.Client, doi, title string, delay time.Duration, w io.Writer) string {
	if doi == "" && title == "" {
		return ""
	}

	var queries []string
	if doi != "" {
		queries = append(queries, fmt.Sprintf(`DOI:"%s"`, doi))
	}
	if title != "" {
		queries = append(queries, fmt.Sprintf(`TITLE:"%s"`, strings.ReplaceAll(title, `"`, "")))
	}

	for _, query := range queries {
		u := europePMCSearchBase + "?" + url.Values{
			"query":      {query},
			"format":     {"json"},
			"resultType": {"core"},
			"pageSize":   {"3"},
		}.Encode()

		resp, err := client.Get(u)
		time.Sleep(delay)
		if err != nil {
			fmt.Fprintf(w, "  warning: EuropePMC request failed: %v\n", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			continue
		}

		var search epmcSearchResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&search)
		resp.Body.Close()
		if decodeErr != nil {
			fmt.Fprintf(w, "  warning: parsing EuropePMC response: %v\n", decodeErr)
			continue
		}

		for _, result := range search.ResultList.Result {
			if result.PMCID != "" {
				return europePMCPDFBase + result.PMCID + "/fullTextPDF"
			}
			for _, ft := range result.FullTextURLList.FullTextURL {
				if ft.DocumentStyle == "pdf" && ft.Availability == "Open access" && ft.URL != "" {
					return ft.URL
				}
			}
		}
	}

	return ""
}
