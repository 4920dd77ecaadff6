// Copyright Awele Larsen, 2026. All rights reserved.

// Package dataset loads the bibliographic source JSON and extracts DOIs
// from paper metadata.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/awlarsen/paperfetch/pkg/types"
)

// sourceFile mirrors the dataset JSON: a single object with a papers array.
type sourceFile struct {
	Papers []types.Paper `json:"papers"`
}

// Load reads the papers array from the dataset JSON at path.
func Load(path string) ([]types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	var src sourceFile
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	return src.Papers, nil
}

// doiPattern matches a DOI embedded in free text, e.g. in the open
// access disclaimer the dataset attaches to some papers.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s"'<>]+`)

// ExtractDOIs returns {paperID: doi} for every paper whose metadata
// carries a DOI: externalIds first, then a DOI scraped from the open
// access disclaimer text.
func ExtractDOIs(papers []types.Paper) map[string]string {
	dois := make(map[string]string)
	for _, p := range papers {
		if doi := p.ExternalIDs.DOI; doi != "" {
			dois[p.PaperID] = doi
			continue
		}
		if m := doiPattern.FindString(p.OpenAccessPDF.Disclaimer); m != "" {
			dois[p.PaperID] = m
		}
	}
	return dois
}

// OpenAccessURLs returns {paperID: url} for papers with a non-empty
// dataset-supplied open access URL.
func OpenAccessURLs(papers []types.Paper) map[string]string {
	urls := make(map[string]string)
	for _, p := range papers {
		if p.OpenAccessPDF.URL != "" {
			urls[p.PaperID] = p.OpenAccessPDF.URL
		}
	}
	return urls
}
