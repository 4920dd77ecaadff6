// Copyright Awele Larsen, 2026. All rights reserved.

package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awlarsen/paperfetch/pkg/types"
)

func testPapers() []types.Paper {
	return []types.Paper{
		{
			PaperID: "p1",
			Title:   "Deep Learning for Drug Repurposing",
			Authors: []types.Author{{Name: "A. Author"}, {Name: "B. Author"}},
			Year:    2021,
			ExternalIDs: types.ExternalIDs{
				DOI: "10.1000/p1",
			},
		},
		{PaperID: "p2", Title: "Graph Mining at Scale", Year: 2019},
		{PaperID: "p3", Title: "Literature Based Discovery", Year: 2023},
	}
}

func TestInitIdempotent(t *testing.T) {
	m := New()
	if added := m.Init(testPapers()); added != 3 {
		t.Fatalf("first init added %d entries, want 3", added)
	}

	// Mutate one entry, then re-init: existing entries stay untouched.
	if err := m.Update("p1", types.StatusDownloaded, "open_access", "http://x/p1.pdf", "data/pdfs/p1.pdf"); err != nil {
		t.Fatal(err)
	}
	if added := m.Init(testPapers()); added != 0 {
		t.Fatalf("re-init added %d entries, want 0", added)
	}

	e := m.Get("p1")
	if e.Status != types.StatusDownloaded {
		t.Errorf("re-init reset p1 status to %q", e.Status)
	}
	if got := m.Get("p1").Authors; got != "A. Author; B. Author" {
		t.Errorf("authors snapshot = %q", got)
	}
	if m.Len() != 3 {
		t.Errorf("Len = %d, want 3", m.Len())
	}
}

func TestDOIMonotonicity(t *testing.T) {
	m := New()
	m.Init(testPapers())

	// p1 has a DOI from the dataset snapshot; it must not be replaced.
	if m.SetDOI("p1", "10.9999/other") {
		t.Error("SetDOI overwrote an existing DOI")
	}
	if got := m.Get("p1").DOI; got != "10.1000/p1" {
		t.Errorf("p1 DOI = %q, want original", got)
	}

	// p2 has none; the first set wins, later sets are ignored.
	if !m.SetDOI("p2", "10.1000/p2") {
		t.Error("SetDOI refused to fill an empty DOI")
	}
	if m.SetDOI("p2", "10.1000/p2-second") {
		t.Error("SetDOI overwrote a just-set DOI")
	}
	if got := m.Get("p2").DOI; got != "10.1000/p2" {
		t.Errorf("p2 DOI = %q, want first value", got)
	}

	// Update never touches the DOI.
	m.Update("p2", types.StatusFailed, "unpaywall", "http://x/p2", "")
	if got := m.Get("p2").DOI; got != "10.1000/p2" {
		t.Errorf("Update changed DOI to %q", got)
	}
}

func TestFilePathIffDownloaded(t *testing.T) {
	m := New()
	m.Init(testPapers())

	m.Update("p1", types.StatusDownloaded, "open_access", "http://x/p1.pdf", "data/pdfs/p1.pdf")
	if got := m.Get("p1").FilePath; got != "data/pdfs/p1.pdf" {
		t.Errorf("downloaded entry FilePath = %q", got)
	}

	// A non-downloaded transition clears the path even when one is passed.
	m.Update("p2", types.StatusFailed, "open_access", "http://x/p2.pdf", "data/pdfs/p2.pdf")
	if got := m.Get("p2").FilePath; got != "" {
		t.Errorf("failed entry FilePath = %q, want empty", got)
	}

	// Demotion clears the stale path.
	m.Update("p1", types.StatusFailed, "open_access", "", "")
	if got := m.Get("p1").FilePath; got != "" {
		t.Errorf("demoted entry kept FilePath %q", got)
	}

	for _, id := range m.IDs() {
		e := m.Get(id)
		hasPath := e.FilePath != ""
		isDownloaded := e.Status == types.StatusDownloaded
		if hasPath != isDownloaded {
			t.Errorf("%s: file_path set = %v but downloaded = %v", id, hasPath, isDownloaded)
		}
	}
}

func TestUpdateUnknownID(t *testing.T) {
	m := New()
	if err := m.Update("ghost", types.StatusFailed, "x", "", ""); err == nil {
		t.Error("Update on unknown ID did not error")
	}
}

func TestPhaseFilters(t *testing.T) {
	m := New()
	m.Init(testPapers())
	m.SetDOI("p2", "10.1000/p2")
	m.Update("p1", types.StatusDownloaded, "open_access", "http://x/p1.pdf", "f.pdf")
	m.Update("p2", types.StatusFailed, "open_access", "http://x/p2", "")
	// p3 stays pending.

	if got := m.ByStatus(types.StatusPending); len(got) != 1 || got[0] != "p3" {
		t.Errorf("pending = %v, want [p3]", got)
	}
	if got := m.ByStatus(types.StatusFailed, types.StatusNotFound); len(got) != 1 || got[0] != "p2" {
		t.Errorf("failed/not_found = %v, want [p2]", got)
	}

	withDOI := m.Filter(func(e *types.ManifestEntry) bool {
		return e.DOI != "" && e.Status == types.StatusFailed
	})
	if len(withDOI) != 1 || withDOI[0] != "p2" {
		t.Errorf("failed-with-DOI = %v, want [p2]", withDOI)
	}

	counts := m.CountByStatus()
	if counts[types.StatusDownloaded] != 1 || counts[types.StatusFailed] != 1 || counts[types.StatusPending] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestResetToPending(t *testing.T) {
	m := New()
	m.Init(testPapers())
	m.Update("p1", types.StatusDownloaded, "open_access", "u", "f.pdf")
	m.Update("p2", types.StatusFailed, "open_access", "u", "")
	m.Update("p3", types.StatusNotFound, "google_scholar", "", "")

	reset := m.ResetToPending(types.StatusFailed, types.StatusNotFound)
	if len(reset) != 2 {
		t.Fatalf("reset %v, want p2 and p3", reset)
	}
	if m.Get("p1").Status != types.StatusDownloaded {
		t.Error("reset touched a downloaded entry")
	}
	for _, id := range []string{"p2", "p3"} {
		if m.Get(id).Status != types.StatusPending {
			t.Errorf("%s status = %q, want pending", id, m.Get(id).Status)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := New()
	m.Init(testPapers())
	m.SetDOI("p2", "10.1000/p2")
	m.Update("p1", types.StatusDownloaded, "open_access", "http://x/p1.pdf", "data/pdfs/p1.pdf")
	m.Update("p2", types.StatusFailed, "unpaywall", "http://x/p2", "")

	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	// Iteration order survives the round trip.
	wantOrder := []string{"p1", "p2", "p3"}
	gotOrder := got.IDs()
	if len(gotOrder) != len(wantOrder) {
		t.Fatalf("IDs = %v", gotOrder)
	}
	for i, id := range wantOrder {
		if gotOrder[i] != id {
			t.Fatalf("iteration order %v, want %v", gotOrder, wantOrder)
		}
	}

	// No field loss.
	for _, id := range wantOrder {
		want := m.Get(id)
		have := got.Get(id)
		if *want != *have {
			t.Errorf("%s: round trip %+v != %+v", id, have, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing manifest should not error: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("missing manifest Len = %d", m.Len())
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := New()
	m.Init(testPapers())
	for i := 0; i < 3; i++ {
		if err := m.Save(path); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".manifest-") {
			t.Errorf("stale temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want just the manifest", len(entries))
	}
}

func TestCrashResume(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	// First run downloads p1, then "crashes".
	m := New()
	m.Init(testPapers())
	m.Update("p1", types.StatusDownloaded, "open_access", "u", "f.pdf")
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}

	// Second run: load plus init must resume from persisted state.
	resumed, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if added := resumed.Init(testPapers()); added != 0 {
		t.Errorf("resume re-seeded %d entries", added)
	}
	if resumed.Get("p1").Status != types.StatusDownloaded {
		t.Error("resume lost the downloaded status")
	}
	pending := resumed.ByStatus(types.StatusPending)
	if len(pending) != 2 {
		t.Errorf("resume pending = %v, want p2 and p3", pending)
	}
}
