// Copyright Awele Larsen, 2026. All rights reserved.

package types

// Status tracks how far the pipeline has gotten with one paper.
type Status string

const (
	// StatusPending means no phase has produced a final outcome yet.
	StatusPending Status = "pending"

	// StatusDownloaded means a validated PDF is on disk. Terminal:
	// no phase revisits a downloaded paper.
	StatusDownloaded Status = "downloaded"

	// StatusNotFound means a source ran cleanly but had no candidate URL.
	StatusNotFound Status = "not_found"

	// StatusFailed means a candidate URL existed but the download failed.
	StatusFailed Status = "failed"
)

// ManifestEntry is the durable per-paper acquisition record. One entry
// per paper ID; entries are updated in place, never deleted.
type ManifestEntry struct {
	Status Status `json:"status"`

	// DOI is write-once: filled when absent, never overwritten.
	DOI string `json:"doi,omitempty"`

	// Source names the phase that produced the last status transition.
	Source string `json:"source,omitempty"`

	// URL is the last URL attempted, kept for transform retries,
	// proxy rewriting, and failure-domain stats.
	URL string `json:"url,omitempty"`

	// FilePath is the downloaded artifact, relative to the project
	// root. Set exactly when Status is downloaded.
	FilePath string `json:"file_path,omitempty"`

	// Snapshot of the dataset record, so later phases do not need the
	// original JSON.
	Title   string `json:"title,omitempty"`
	Authors string `json:"authors,omitempty"`
	Year    int    `json:"year,omitempty"`
}
