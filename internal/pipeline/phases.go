// Copyright Awele Larsen, 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/awlarsen/paperfetch/internal/sources"
	"github.com/awlarsen/paperfetch/internal/transform"
	"github.com/awlarsen/paperfetch/pkg/types"
)

const scholarReferer = "https://scholar.google.com/"

// maxRateLimitStreak aborts a rotation-eligible phase when this many
// consecutive rate limits arrive and no rotation path remains.
const maxRateLimitStreak = 5

// Adapter indirections, swapped out by tests.
var (
	transformCandidates = transform.Candidates
	scholarResolve      = sources.Scholar
	coreResolve         = sources.CORE
	europePMCResolve    = sources.EuropePMC
	arxivResolve        = sources.Arxiv
	crossrefResolve     = sources.Crossref
	scihubResolve       = sources.SciHub
)

// scholarPhase searches Google Scholar for every still-pending paper.
// This is the heaviest rate-limit risk in the sequence, so it is
// coupled to the rotation scheduler: proactive rotation on a fixed
// cadence, reactive rotation plus one retry on a rate-limit signal.
func (p *Pipeline) scholarPhase(ctx context.Context) error {
	pending := p.man.ByStatus(types.StatusPending)
	if len(pending) == 0 {
		fmt.Fprintln(p.w, "\nno pending papers for Google Scholar")
		return nil
	}

	fmt.Fprintf(p.w, "\n--- Phase 4: Google Scholar (%d papers) ---\n", len(pending))
	if p.rotationAvailable() {
		fmt.Fprintf(p.w, "  rotation enabled: every %d papers\n", p.cfg.VPN.RotateEveryN)
	}

	steadyDelay := p.cfg.Scholar.Delay
	currentDelay := steadyDelay
	downloaded, notFound, failed := 0, 0, 0
	completed := 0
	rateLimitStreak := 0

	for _, id := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if p.rotationAvailable() && p.vpn.ShouldRotateProactively(completed) {
			fmt.Fprintf(p.w, "  proactive rotation after %d papers\n", completed)
			if p.vpn.Rotate() {
				currentDelay = p.cfg.Scholar.DelayAfterRotation
				rateLimitStreak = 0
			}
		}

		title := p.man.Get(id).Title
		pdfURL, rateLimited := scholarResolve(p.client, title, currentDelay, p.w)

		if rateLimited && p.rotationAvailable() {
			fmt.Fprintln(p.w, "  rate limited, rotating")
			if p.vpn.Rotate() {
				currentDelay = p.cfg.Scholar.DelayAfterRotation
				pdfURL, rateLimited = scholarResolve(p.client, title, currentDelay, p.w)
			}
		}

		if rateLimited {
			p.man.Update(id, types.StatusFailed, "google_scholar", "", "")
			p.record(id, "google_scholar", "", "rate_limited")
			failed++
			if err := p.save(); err != nil {
				return err
			}
			completed++
			rateLimitStreak++
			if rateLimitStreak >= maxRateLimitStreak && !p.rotationAvailable() {
				fmt.Fprintf(p.w, "  %d consecutive rate limits with no rotation path, aborting Scholar phase\n", rateLimitStreak)
				break
			}
			continue
		}
		rateLimitStreak = 0

		if pdfURL == "" {
			p.man.Update(id, types.StatusNotFound, "google_scholar", "", "")
			p.record(id, "google_scholar", "", "not_found")
			notFound++
		} else {
			dest := p.destPath(id)
			if p.dl.Fetch(pdfURL, dest, scholarReferer) {
				p.man.Update(id, types.StatusDownloaded, "google_scholar", pdfURL, dest)
				p.record(id, "google_scholar", pdfURL, "downloaded")
				downloaded++
			} else {
				p.man.Update(id, types.StatusFailed, "google_scholar", pdfURL, "")
				p.record(id, "google_scholar", pdfURL, "failed")
				failed++
			}
		}

		if err := p.save(); err != nil {
			return err
		}
		completed++

		// Ramp the delay back to steady state after a rotation.
		if currentDelay < steadyDelay {
			currentDelay += time.Second
			if currentDelay > steadyDelay {
				currentDelay = steadyDelay
			}
		}
	}

	fmt.Fprintf(p.w, "Google Scholar: %d downloaded, %d not found, %d failed\n", downloaded, notFound, failed)
	return nil
}

// repoPhase searches open repository APIs, cheapest first: CORE, then
// EuropePMC, then arXiv, over whatever is still failed or not found.
// Candidates are re-derived between sub-phases so a paper downloaded by
// CORE is not offered to EuropePMC.
func (p *Pipeline) repoPhase(ctx context.Context) error {
	candidates := p.man.ByStatus(types.StatusFailed, types.StatusNotFound)
	if len(candidates) == 0 {
		fmt.Fprintln(p.w, "  no failed/not_found papers for repository APIs")
		return nil
	}
	fmt.Fprintf(p.w, "  searching repository APIs for %d papers\n", len(candidates))

	coreCount, err := p.corePhase(ctx, candidates)
	if err != nil {
		return err
	}

	candidates = p.man.ByStatus(types.StatusFailed, types.StatusNotFound)
	fmt.Fprintf(p.w, "\n  5b. EuropePMC (%d papers)\n", len(candidates))
	epmcCount := 0
	for _, id := range candidates {
		e := p.man.Get(id)
		pdfURL := europePMCResolve(p.client, e.DOI, e.Title, p.cfg.EuropePMC.Delay, p.w)
		if pdfURL == "" {
			continue
		}
		dest := p.destPath(id)
		if p.dl.Fetch(pdfURL, dest, "") {
			p.man.Update(id, types.StatusDownloaded, "europepmc", pdfURL, dest)
			p.record(id, "europepmc", pdfURL, "downloaded")
			epmcCount++
			if err := p.save(); err != nil {
				return err
			}
		} else {
			p.record(id, "europepmc", pdfURL, "failed")
		}
		sleepFn(p.cfg.Download.Delay)
	}
	fmt.Fprintf(p.w, "  EuropePMC: %d downloaded\n", epmcCount)

	candidates = p.man.ByStatus(types.StatusFailed, types.StatusNotFound)
	fmt.Fprintf(p.w, "\n  5c. arXiv (%d papers)\n", len(candidates))
	arxivCount := 0
	for _, id := range candidates {
		e := p.man.Get(id)
		if e.Title == "" {
			continue
		}
		pdfURL := arxivResolve(p.client, e.Title, p.cfg.Arxiv.Delay, p.w)
		if pdfURL == "" {
			continue
		}
		dest := p.destPath(id)
		if p.dl.Fetch(pdfURL, dest, "") {
			p.man.Update(id, types.StatusDownloaded, "arxiv", pdfURL, dest)
			p.record(id, "arxiv", pdfURL, "downloaded")
			arxivCount++
			if err := p.save(); err != nil {
				return err
			}
		} else {
			p.record(id, "arxiv", pdfURL, "failed")
		}
		sleepFn(p.cfg.Download.Delay)
	}
	fmt.Fprintf(p.w, "  arXiv: %d downloaded\n", arxivCount)

	fmt.Fprintf(p.w, "  repository APIs total: %d downloaded\n", coreCount+epmcCount+arxivCount)
	return nil
}

// corePhase runs the CORE.ac.uk sub-phase. Like Scholar it is coupled
// to the rotation scheduler, and it aborts after a sustained rate-limit
// streak with no rotation path.
func (p *Pipeline) corePhase(ctx context.Context, candidates []string) (int, error) {
	fmt.Fprintf(p.w, "\n  5a. CORE.ac.uk (%d papers)\n", len(candidates))
	if p.cfg.CORE.APIKey != "" {
		fmt.Fprintln(p.w, "  using CORE API key for higher rate limits")
	}

	downloaded := 0
	completed := 0
	rateLimitStreak := 0

	for _, id := range candidates {
		select {
		case <-ctx.Done():
			return downloaded, ctx.Err()
		default:
		}

		if p.rotationAvailable() && p.vpn.ShouldRotateProactively(completed) {
			fmt.Fprintf(p.w, "  proactive rotation after %d CORE papers\n", completed)
			if p.vpn.Rotate() {
				rateLimitStreak = 0
			}
		}

		e := p.man.Get(id)
		pdfURL, rateLimited := coreResolve(ctx, p.client, e.DOI, e.Title, p.cfg.CORE, p.w)

		if rateLimited {
			rateLimitStreak++
			if p.rotationAvailable() {
				fmt.Fprintf(p.w, "  CORE rate limited (streak %d), rotating\n", rateLimitStreak)
				if p.vpn.Rotate() {
					rateLimitStreak = 0
					pdfURL, rateLimited = coreResolve(ctx, p.client, e.DOI, e.Title, p.cfg.CORE, p.w)
				}
			} else if rateLimitStreak >= maxRateLimitStreak {
				fmt.Fprintf(p.w, "  %d consecutive rate limits with no rotation path, aborting CORE phase\n", rateLimitStreak)
				break
			}
		}
		if !rateLimited {
			rateLimitStreak = 0
		}

		if pdfURL != "" {
			dest := p.destPath(id)
			if p.dl.Fetch(pdfURL, dest, "") {
				p.man.Update(id, types.StatusDownloaded, "core", pdfURL, dest)
				p.record(id, "core", pdfURL, "downloaded")
				downloaded++
				if err := p.save(); err != nil {
					return downloaded, err
				}
			} else {
				p.record(id, "core", pdfURL, "failed")
			}
			sleepFn(p.cfg.Download.Delay)
		}
		completed++
	}

	fmt.Fprintf(p.w, "  CORE: %d downloaded\n", downloaded)
	return downloaded, nil
}

// crossrefPhase tries DOI content negotiation and the Crossref works
// API for failed and not-found papers with DOIs.
func (p *Pipeline) crossrefPhase() error {
	ids, dois := p.withDOI(types.StatusFailed, types.StatusNotFound)
	if len(ids) == 0 {
		fmt.Fprintln(p.w, "  no failed/not_found papers with DOIs")
		return nil
	}
	fmt.Fprintf(p.w, "  trying Crossref content negotiation for %d papers\n", len(ids))

	downloaded := 0
	for _, id := range ids {
		pdfURL := crossrefResolve(p.client, dois[id], p.cfg.Crossref, p.w)
		if pdfURL == "" {
			continue
		}
		dest := p.destPath(id)
		if p.dl.Fetch(pdfURL, dest, "") {
			p.man.Update(id, types.StatusDownloaded, "crossref", pdfURL, dest)
			p.record(id, "crossref", pdfURL, "downloaded")
			downloaded++
			if err := p.save(); err != nil {
				return err
			}
		} else {
			p.record(id, "crossref", pdfURL, "failed")
		}
		sleepFn(p.cfg.Download.Delay)
	}

	fmt.Fprintf(p.w, "  Crossref: %d downloaded\n", downloaded)
	return nil
}

// proxyPhase retries paywalled papers through the institutional proxy.
// Opt-in, and skipped with a notice when no proxy base URL is set.
func (p *Pipeline) proxyPhase() error {
	if p.cfg.Proxy.BaseURL == "" {
		fmt.Fprintln(p.w, "  skipping institutional proxy: no base URL configured")
		return nil
	}

	candidates := transform.ProxyCandidates(p.man, p.cfg.Proxy)
	if len(candidates) == 0 {
		fmt.Fprintln(p.w, "  no papers eligible for institutional proxy")
		return nil
	}
	fmt.Fprintf(p.w, "  trying institutional proxy for %d papers\n", len(candidates))

	downloaded := 0
	for _, c := range candidates {
		dest := p.destPath(c.PaperID)
		if p.dl.Fetch(c.URL, dest, "") {
			p.man.Update(c.PaperID, types.StatusDownloaded, "institutional_proxy", c.URL, dest)
			p.record(c.PaperID, "institutional_proxy", c.URL, "downloaded")
			downloaded++
			if err := p.save(); err != nil {
				return err
			}
		} else {
			p.record(c.PaperID, "institutional_proxy", c.URL, "failed")
		}
		sleepFn(p.cfg.Download.Delay)
	}

	fmt.Fprintf(p.w, "  institutional proxy: %d downloaded\n", downloaded)
	return nil
}

// scihubPhase asks Sci-Hub mirrors for failed and not-found papers with
// DOIs. Never runs without the explicit opt-in flag.
func (p *Pipeline) scihubPhase() error {
	ids, dois := p.withDOI(types.StatusFailed, types.StatusNotFound)
	if len(ids) == 0 {
		fmt.Fprintln(p.w, "  no failed/not_found papers with DOIs")
		return nil
	}
	fmt.Fprintf(p.w, "  trying Sci-Hub for %d papers\n", len(ids))

	downloaded := 0
	for _, id := range ids {
		pdfURL := scihubResolve(p.client, dois[id], p.cfg.SciHub.Mirrors, p.cfg.SciHub.Delay, p.w)
		if pdfURL == "" {
			continue
		}
		dest := p.destPath(id)
		if p.dl.Fetch(pdfURL, dest, "") {
			p.man.Update(id, types.StatusDownloaded, "scihub", pdfURL, dest)
			p.record(id, "scihub", pdfURL, "downloaded")
			downloaded++
			if err := p.save(); err != nil {
				return err
			}
		} else {
			p.record(id, "scihub", pdfURL, "failed")
		}
		sleepFn(p.cfg.Download.Delay)
	}

	fmt.Fprintf(p.w, "  Sci-Hub: %d downloaded\n", downloaded)
	return nil
}
