// Copyright Awele Larsen, 2026. All rights reserved.

// Package types holds the shared data model for the download pipeline:
// source dataset papers, manifest entries, and per-stage configuration.
package types

// Paper is one record from the source dataset JSON. It is immutable
// input; the pipeline never writes back to the dataset.
type Paper struct {
	// PaperID is the unique key (Semantic Scholar paper ID).
	PaperID string `json:"paperId"`

	// Title is the paper title.
	Title string `json:"title"`

	// Authors lists the paper authors in source order.
	Authors []Author `json:"authors,omitempty"`

	// Year is the publication year, 0 when unknown.
	Year int `json:"year,omitempty"`

	// ExternalIDs holds external identifiers; only the DOI is used.
	ExternalIDs ExternalIDs `json:"externalIds,omitempty"`

	// OpenAccessPDF is the dataset-supplied open access location, if any.
	OpenAccessPDF OpenAccessPDF `json:"openAccessPdf,omitempty"`
}

// Author is a single dataset author record.
type Author struct {
	Name string `json:"name"`
}

// ExternalIDs holds the subset of dataset identifiers the pipeline reads.
type ExternalIDs struct {
	DOI string `json:"DOI,omitempty"`
}

// OpenAccessPDF is the dataset's open access PDF pointer. The disclaimer
// text sometimes embeds a DOI when ExternalIDs lacks one.
type OpenAccessPDF struct {
	URL        string `json:"url,omitempty"`
	Disclaimer string `json:"disclaimer,omitempty"`
}

// AuthorNames returns the author names joined with "; " for manifest
// snapshots and CSV export.
func (p Paper) AuthorNames() string {
	s := ""
	for i, a := range p.Authors {
		if i > 0 {
			s += "; "
		}
		s += a.Name
	}
	return s
}
