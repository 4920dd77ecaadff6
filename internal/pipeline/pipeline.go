// Copyright Awele Larsen, 2026. All rights reserved.

// Package pipeline drives papers through the ordered source fallback
// sequence. Each phase computes its candidate set by filtering manifest
// status, resolves candidate URLs through one source adapter, hands
// them to the download executor, and persists the manifest after every
// mutation so an interrupted run resumes exactly where it stopped.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/awlarsen/paperfetch/internal/dataset"
	"github.com/awlarsen/paperfetch/internal/download"
	"github.com/awlarsen/paperfetch/internal/ledger"
	"github.com/awlarsen/paperfetch/internal/manifest"
	"github.com/awlarsen/paperfetch/internal/rotate"
	"github.com/awlarsen/paperfetch/internal/sources"
	"github.com/awlarsen/paperfetch/pkg/types"
)

// sleepFn is swapped out by tests to avoid real courtesy pauses.
var sleepFn = time.Sleep

// Options selects which phases run and how retriable entries are
// handled. The zero value runs the default sequence: phases 0 through
// 7, with proxy and Sci-Hub off.
type Options struct {
	OpenAccessOnly bool
	ScholarOnly    bool
	ReposOnly      bool
	SkipUnpaywall  bool
	UseProxy       bool
	UseSciHub      bool
	RetryFailed    bool
	RetryNotFound  bool
}

// Pipeline owns the manifest and collaborators for one run.
type Pipeline struct {
	cfg    types.Config
	client *http.Client
	man    *manifest.Manifest
	papers []types.Paper
	dl     *download.Executor
	vpn    *rotate.Scheduler
	led    *ledger.Ledger
	w      io.Writer
}

// New loads the dataset and manifest and seeds pending entries for any
// papers not yet tracked. The scheduler and ledger may be nil; the
// corresponding capabilities are then simply not offered.
func New(cfg types.Config, client *http.Client, dl *download.Executor, vpn *rotate.Scheduler, led *ledger.Ledger, w io.Writer) (*Pipeline, error) {
	papers, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return nil, err
	}

	man, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}
	man.Init(papers)
	if err := man.Save(cfg.ManifestPath); err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:    cfg,
		client: client,
		man:    man,
		papers: papers,
		dl:     dl,
		vpn:    vpn,
		led:    led,
		w:      w,
	}, nil
}

// Manifest exposes the manifest for reporting commands.
func (p *Pipeline) Manifest() *manifest.Manifest { return p.man }

// Run executes the phase sequence. An error means the manifest could
// not be persisted; every other failure is absorbed into per-paper
// status.
func (p *Pipeline) Run(ctx context.Context, opts Options) error {
	fmt.Fprintf(p.w, "loaded %d papers, manifest: %v\n", len(p.papers), p.man.CountByStatus())

	if opts.RetryFailed {
		if ids := p.man.ResetToPending(types.StatusFailed); len(ids) > 0 {
			fmt.Fprintf(p.w, "reset %d failed papers to pending\n", len(ids))
			if err := p.save(); err != nil {
				return err
			}
		}
	}
	if opts.RetryNotFound {
		if ids := p.man.ResetToPending(types.StatusNotFound); len(ids) > 0 {
			fmt.Fprintf(p.w, "reset %d not_found papers to pending\n", len(ids))
			if err := p.save(); err != nil {
				return err
			}
		}
	}

	if opts.ReposOnly {
		fmt.Fprintln(p.w, "\n--- Phase 5: Repository APIs (repos-only mode) ---")
		if err := p.repoPhase(ctx); err != nil {
			return err
		}
		fmt.Fprintf(p.w, "\nfinal status: %v\n", p.man.CountByStatus())
		return nil
	}

	fmt.Fprintln(p.w, "\n--- Phase 0: DOI Enrichment ---")
	if err := p.enrichDOIs(); err != nil {
		return err
	}

	if !opts.ScholarOnly {
		if err := p.openAccessPhase(); err != nil {
			return err
		}
	}

	if !opts.OpenAccessOnly && !opts.SkipUnpaywall {
		fmt.Fprintln(p.w, "\n--- Phase 2: Unpaywall ---")
		if err := p.unpaywallPhase(); err != nil {
			return err
		}
	}

	if !opts.ScholarOnly && !opts.OpenAccessOnly {
		fmt.Fprintln(p.w, "\n--- Phase 3: URL Transforms ---")
		if err := p.transformPhase(); err != nil {
			return err
		}
	}

	if !opts.OpenAccessOnly {
		if err := p.scholarPhase(ctx); err != nil {
			return err
		}
	}

	if !opts.OpenAccessOnly && !opts.ScholarOnly {
		fmt.Fprintln(p.w, "\n--- Phase 5: Repository APIs ---")
		if err := p.repoPhase(ctx); err != nil {
			return err
		}

		fmt.Fprintln(p.w, "\n--- Phase 6: Expanded URL Transforms ---")
		if err := p.transformPhase(); err != nil {
			return err
		}

		fmt.Fprintln(p.w, "\n--- Phase 7: Crossref Content Negotiation ---")
		if err := p.crossrefPhase(); err != nil {
			return err
		}
	}

	if opts.UseProxy {
		fmt.Fprintln(p.w, "\n--- Phase 8: Institutional Proxy ---")
		if err := p.proxyPhase(); err != nil {
			return err
		}
	}

	if opts.UseSciHub {
		fmt.Fprintln(p.w, "\n--- Phase 9: Sci-Hub ---")
		if err := p.scihubPhase(); err != nil {
			return err
		}
	}

	fmt.Fprintf(p.w, "\nfinal status: %v\n", p.man.CountByStatus())
	return nil
}

// save persists the manifest. Persistence errors are the one category
// that terminates the run: continuing with an unpersisted manifest
// would break crash-safe resume.
func (p *Pipeline) save() error {
	return p.man.Save(p.cfg.ManifestPath)
}

// destPath returns the download destination for a paper. The same path
// is recorded in the manifest, relative to the project root when PDFDir
// is relative.
func (p *Pipeline) destPath(paperID string) string {
	return filepath.Join(p.cfg.Download.PDFDir, paperID+".pdf")
}

// record appends an attempt to the ledger when one is open. Ledger
// failures are advisory.
func (p *Pipeline) record(paperID, phase, url, outcome string) {
	if p.led == nil {
		return
	}
	if err := p.led.RecordAttempt(paperID, phase, url, outcome); err != nil {
		fmt.Fprintf(p.w, "  warning: ledger: %v\n", err)
	}
}

// rotationAvailable reports whether the scheduler can still offer
// rotation for this run.
func (p *Pipeline) rotationAvailable() bool {
	return p.vpn != nil && !p.vpn.HasFailedPermanently()
}

// withDOI returns candidate IDs with the given statuses that carry a
// DOI, paired with the DOI, in manifest iteration order.
func (p *Pipeline) withDOI(statuses ...types.Status) ([]string, map[string]string) {
	ids := p.man.Filter(func(e *types.ManifestEntry) bool {
		if e.DOI == "" {
			return false
		}
		for _, s := range statuses {
			if e.Status == s {
				return true
			}
		}
		return false
	})
	dois := make(map[string]string, len(ids))
	for _, id := range ids {
		dois[id] = p.man.Get(id).DOI
	}
	return ids, dois
}

// enrichDOIs fills manifest DOIs from paper metadata, the disclaimer
// text, and finally the Semantic Scholar batch API for whatever is
// still missing.
func (p *Pipeline) enrichDOIs() error {
	local := dataset.ExtractDOIs(p.papers)
	newLocal := 0
	for id, doi := range local {
		if p.man.SetDOI(id, doi) {
			newLocal++
		}
	}
	fmt.Fprintf(p.w, "  DOIs from metadata/disclaimer: %d total, %d newly added\n", len(local), newLocal)

	missing := p.man.Filter(func(e *types.ManifestEntry) bool { return e.DOI == "" })
	if len(missing) > 0 {
		fmt.Fprintf(p.w, "  looking up %d papers via Semantic Scholar batch API\n", len(missing))
		found := sources.BatchDOIs(p.client, missing, p.cfg.SemanticScholar, p.w)
		newAPI := 0
		for id, doi := range found {
			if p.man.SetDOI(id, doi) {
				newAPI++
			}
		}
		fmt.Fprintf(p.w, "  DOIs from batch API: %d found, %d newly added\n", len(found), newAPI)
	}

	withDOI := len(p.man.Filter(func(e *types.ManifestEntry) bool { return e.DOI != "" }))
	fmt.Fprintf(p.w, "  total papers with DOI: %d/%d\n", withDOI, p.man.Len())
	return p.save()
}

// openAccessPhase downloads dataset-supplied open access URLs for
// still-pending papers. A failed download marks the paper failed; its
// URL then feeds the transform phase.
func (p *Pipeline) openAccessPhase() error {
	urls := dataset.OpenAccessURLs(p.papers)
	var candidates []string
	for _, id := range p.man.ByStatus(types.StatusPending) {
		if urls[id] != "" {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		fmt.Fprintln(p.w, "\nno pending open access papers")
		return nil
	}

	fmt.Fprintf(p.w, "\n--- Phase 1: Open Access (%d papers) ---\n", len(candidates))
	downloaded, failed := 0, 0

	for _, id := range candidates {
		url := urls[id]
		dest := p.destPath(id)
		if p.dl.Fetch(url, dest, "") {
			p.man.Update(id, types.StatusDownloaded, "open_access", url, dest)
			p.record(id, "open_access", url, "downloaded")
			downloaded++
		} else {
			p.man.Update(id, types.StatusFailed, "open_access", url, "")
			p.record(id, "open_access", url, "failed")
			failed++
		}
		if err := p.save(); err != nil {
			return err
		}
		sleepFn(p.cfg.Download.Delay)
	}

	fmt.Fprintf(p.w, "open access: %d downloaded, %d failed\n", downloaded, failed)
	return nil
}

// unpaywallPhase queries Unpaywall for pending papers with DOIs. A
// paper with no Unpaywall PDF, or whose download fails, stays pending
// so the Scholar phase can still try it.
func (p *Pipeline) unpaywallPhase() error {
	if p.cfg.Unpaywall.Email == "" {
		fmt.Fprintln(p.w, "  skipping Unpaywall: no contact email configured")
		return nil
	}

	ids, dois := p.withDOI(types.StatusPending)
	if len(ids) == 0 {
		fmt.Fprintln(p.w, "  no pending papers with DOIs")
		return nil
	}
	fmt.Fprintf(p.w, "  querying Unpaywall for %d papers\n", len(ids))

	downloaded, noPDF := 0, 0
	for _, id := range ids {
		pdfURL := sources.Unpaywall(p.client, dois[id], p.cfg.Unpaywall.Email, p.cfg.Unpaywall.Delay, p.w)
		if pdfURL == "" {
			noPDF++
			continue
		}

		dest := p.destPath(id)
		if p.dl.Fetch(pdfURL, dest, "") {
			p.man.Update(id, types.StatusDownloaded, "unpaywall", pdfURL, dest)
			p.record(id, "unpaywall", pdfURL, "downloaded")
			downloaded++
			if err := p.save(); err != nil {
				return err
			}
		} else {
			// Still pending: Scholar can try this paper later.
			p.record(id, "unpaywall", pdfURL, "failed")
		}
		sleepFn(p.cfg.Download.Delay)
	}

	fmt.Fprintf(p.w, "  Unpaywall: %d downloaded, %d no PDF (still pending)\n", downloaded, noPDF)
	return nil
}

// transformPhase retries failed papers through domain-specific URL
// rewrites. Runs twice in the sequence: once after Unpaywall and again
// after the repository APIs have accumulated fresh failures.
func (p *Pipeline) transformPhase() error {
	type candidate struct {
		id   string
		alts []string
	}
	var candidates []candidate
	for _, id := range p.man.ByStatus(types.StatusFailed) {
		e := p.man.Get(id)
		if e.URL == "" {
			continue
		}
		if alts := transformCandidates(p.client, e.URL); len(alts) > 0 {
			candidates = append(candidates, candidate{id: id, alts: alts})
		}
	}
	if len(candidates) == 0 {
		fmt.Fprintln(p.w, "  no failed papers with transformable URLs")
		return nil
	}

	fmt.Fprintf(p.w, "  trying URL transforms for %d papers\n", len(candidates))
	downloaded := 0

	for _, c := range candidates {
		for _, alt := range c.alts {
			dest := p.destPath(c.id)
			if p.dl.Fetch(alt, dest, "") {
				p.man.Update(c.id, types.StatusDownloaded, "url_transform", alt, dest)
				p.record(c.id, "url_transform", alt, "downloaded")
				downloaded++
				if err := p.save(); err != nil {
					return err
				}
				break
			}
			p.record(c.id, "url_transform", alt, "failed")
			sleepFn(p.cfg.Download.Delay)
		}
	}

	fmt.Fprintf(p.w, "  URL transforms: %d downloaded\n", downloaded)
	return nil
}
