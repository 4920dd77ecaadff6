// Copyright Awele Larsen, 2026. All rights reserved.

// Package manifest implements the durable per-paper acquisition ledger.
// The manifest is the single authority on what has been attempted: every
// phase derives its candidate set from persisted status, and the file is
// rewritten atomically after every mutation so a crash never loses more
// than the attempt in flight.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/awlarsen/paperfetch/pkg/types"
)

// Manifest maps paper IDs to their acquisition records. Iteration order
// is insertion order (the dataset order on first init), preserved across
// save/load cycles.
type Manifest struct {
	entries map[string]*types.ManifestEntry
	order   []string
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{entries: make(map[string]*types.ManifestEntry)}
}

// Init creates a pending entry for every paper not already present,
// seeded from the paper snapshot. Existing entries are left untouched,
// so re-running init over a populated manifest is a no-op for them.
func (m *Manifest) Init(papers []types.Paper) int {
	added := 0
	for _, p := range papers {
		if _, ok := m.entries[p.PaperID]; ok {
			continue
		}
		m.entries[p.PaperID] = &types.ManifestEntry{
			Status:  types.StatusPending,
			DOI:     p.ExternalIDs.DOI,
			Title:   p.Title,
			Authors: p.AuthorNames(),
			Year:    p.Year,
		}
		m.order = append(m.order, p.PaperID)
		added++
	}
	return added
}

// Len returns the number of entries.
func (m *Manifest) Len() int { return len(m.order) }

// IDs returns all paper IDs in iteration order.
func (m *Manifest) IDs() []string {
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// Get returns the entry for id, or nil when absent. The returned entry
// is a copy; mutations go through Update and SetDOI.
func (m *Manifest) Get(id string) *types.ManifestEntry {
	e, ok := m.entries[id]
	if !ok {
		return nil
	}
	c := *e
	return &c
}

// Update sets the status, source, and last URL for id. FilePath is
// honored only for downloaded entries and cleared otherwise, keeping
// "file_path set iff downloaded" true by construction. The DOI field is
// never touched here.
func (m *Manifest) Update(id string, status types.Status, source, url, filePath string) error {
	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("manifest has no entry for %q", id)
	}
	e.Status = status
	e.Source = source
	if url != "" {
		e.URL = url
	}
	if status == types.StatusDownloaded {
		e.FilePath = filePath
	} else {
		e.FilePath = ""
	}
	return nil
}

// SetDOI fills the DOI for id only when the current value is empty.
// A DOI, once recorded, is never replaced.
func (m *Manifest) SetDOI(id, doi string) bool {
	e, ok := m.entries[id]
	if !ok || doi == "" || e.DOI != "" {
		return false
	}
	e.DOI = doi
	return true
}

// Filter returns the IDs whose entries satisfy pred, in iteration order.
func (m *Manifest) Filter(pred func(e *types.ManifestEntry) bool) []string {
	var ids []string
	for _, id := range m.order {
		if pred(m.entries[id]) {
			ids = append(ids, id)
		}
	}
	return ids
}

// ByStatus returns the IDs with the given status, in iteration order.
func (m *Manifest) ByStatus(statuses ...types.Status) []string {
	return m.Filter(func(e *types.ManifestEntry) bool {
		for _, s := range statuses {
			if e.Status == s {
				return true
			}
		}
		return false
	})
}

// CountByStatus returns entry counts keyed by status.
func (m *Manifest) CountByStatus() map[types.Status]int {
	counts := make(map[types.Status]int)
	for _, e := range m.entries {
		counts[e.Status]++
	}
	return counts
}

// ResetToPending moves every entry with one of the given statuses back
// to pending, re-opening it for the whole pipeline. Returns the IDs
// that were reset.
func (m *Manifest) ResetToPending(statuses ...types.Status) []string {
	ids := m.ByStatus(statuses...)
	for _, id := range ids {
		e := m.entries[id]
		e.Status = types.StatusPending
		e.FilePath = ""
	}
	return ids
}

// Load reads a manifest file. A missing file yields an empty manifest.
// Key order in the file becomes the iteration order.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("opening manifest %s: %w", path, err)
	}
	defer f.Close()

	m := New()
	dec := json.NewDecoder(f)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("manifest %s: expected JSON object", path)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
		}
		id, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("manifest %s: non-string key", path)
		}
		var e types.ManifestEntry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("parsing manifest entry %q: %w", id, err)
		}
		m.entries[id] = &e
		m.order = append(m.order, id)
	}

	return m, nil
}

// Save writes the manifest atomically: marshal to a temp file in the
// destination directory, then rename over the old file, so a crash
// mid-write never corrupts the previous good state.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}

	data, err := m.marshal()
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing manifest: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}

// marshal encodes entries as a JSON object in iteration order. The
// stdlib map encoder sorts keys, which would lose the dataset order,
// so the object is assembled key by key.
func (m *Manifest) marshal() ([]byte, error) {
	buf := []byte("{\n")
	for i, id := range m.order {
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.MarshalIndent(m.entries[id], "  ", "  ")
		if err != nil {
			return nil, err
		}
		buf = append(buf, "  "...)
		buf = append(buf, key...)
		buf = append(buf, ": "...)
		buf = append(buf, val...)
		if i < len(m.order)-1 {
			buf = append(buf, ',')
		}
		buf = append(buf, '\n')
	}
	buf = append(buf, "}\n"...)
	return buf, nil
}
