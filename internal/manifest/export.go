// Copyright Awele Larsen, 2026. All rights reserved.

package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"

	"github.com/awlarsen/paperfetch/pkg/types"
)

// remainingColumns is the CSV schema for the manual follow-up export.
var remainingColumns = []string{
	"paper_id", "title", "authors", "year", "doi", "status", "last_url", "suggested_search",
}

// ExportRemaining writes a CSV of every paper not yet downloaded, with a
// pre-built Google Scholar search link for manual follow-up. Returns the
// number of rows written.
func (m *Manifest) ExportRemaining(w io.Writer) (int, error) {
	ids := m.ByStatus(types.StatusPending, types.StatusFailed, types.StatusNotFound)
	if len(ids) == 0 {
		return 0, nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(remainingColumns); err != nil {
		return 0, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, id := range ids {
		e := m.entries[id]
		year := ""
		if e.Year != 0 {
			year = fmt.Sprintf("%d", e.Year)
		}
		search := "https://scholar.google.com/scholar?" + url.Values{"q": {e.Title}}.Encode()
		row := []string{id, e.Title, e.Authors, year, e.DOI, string(e.Status), e.URL, search}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("writing CSV row for %s: %w", id, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flushing CSV: %w", err)
	}
	return len(ids), nil
}
