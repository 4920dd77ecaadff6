// Copyright Awele Larsen, 2026. All rights reserved.

package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

// Fetcher implements ChallengeFetcher with headless Chrome via chromedp.
// Each fetch navigates to the URL, waits for the challenge to resolve,
// and collects whatever PDF lands in a scratch download directory.
type Fetcher struct {
	timeout time.Duration
	w       io.Writer
}

// NewChromedp creates a headless fetcher. A zero timeout defaults to 60s.
func NewChromedp(timeout time.Duration, w io.Writer) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Fetcher{timeout: timeout, w: w}
}

// Fetch navigates rawURL in a fresh headless browser and moves the first
// downloaded PDF to dest.
func (f *Fetcher) Fetch(rawURL, dest string) Outcome {
	downloadDir, err := os.MkdirTemp("", "paperfetch-dl-")
	if err != nil {
		fmt.Fprintf(f.w, "  browser: temp dir: %v\n", err)
		return OutcomeError
	}
	defer os.RemoveAll(downloadDir)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, f.timeout)
	defer cancel()

	err = chromedp.Run(taskCtx,
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(downloadDir),
		chromedp.Navigate(rawURL),
		// Let the Cloudflare interstitial resolve and any download start.
		chromedp.Sleep(8*time.Second),
	)
	if err != nil && taskCtx.Err() == nil {
		fmt.Fprintf(f.w, "  browser: navigation failed for %s: %v\n", rawURL, err)
		return OutcomeError
	}

	if f.collect(downloadDir, dest) {
		return OutcomeOK
	}

	// Some viewers need the embedded PDF link clicked.
	for _, sel := range []string{`a[href*=".pdf"]`, `a[aria-label*="PDF"]`, "#downloadPdf"} {
		clickCtx, clickCancel := context.WithTimeout(taskCtx, 10*time.Second)
		err := chromedp.Run(clickCtx,
			chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible),
			chromedp.Sleep(5*time.Second),
		)
		clickCancel()
		if err != nil {
			continue
		}
		if f.collect(downloadDir, dest) {
			return OutcomeOK
		}
	}

	fmt.Fprintf(f.w, "  browser: no PDF obtained from %s\n", rawURL)
	return OutcomeNotPDF
}

// collect moves the first *.pdf in dir to dest.
func (f *Fetcher) collect(dir, dest string) bool {
	matches, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil || len(matches) == 0 {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false
	}
	if err := os.Rename(matches[0], dest); err != nil {
		// Rename fails across filesystems; fall back to copy.
		data, readErr := os.ReadFile(matches[0])
		if readErr != nil {
			return false
		}
		if writeErr := os.WriteFile(dest, data, 0o644); writeErr != nil {
			return false
		}
	}
	return true
}
