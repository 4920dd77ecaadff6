// Copyright Awele Larsen, 2026. All rights reserved.

// Package download fetches candidate URLs to validated PDF files. It is
// the single download primitive for every pipeline phase: retries with
// exponential backoff, validates the PDF file signature, and reports
// the outcome as a boolean so the caller decides the manifest status.
package download

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/awlarsen/paperfetch/internal/browser"
	"github.com/awlarsen/paperfetch/pkg/types"
)

// pdfMagic is the file signature every accepted download must start with.
var pdfMagic = []byte("%PDF-")

// browserHeaders mimic a desktop browser; several academic publishers
// return 403 to anything that looks like a script.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "application/pdf,text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"DNT":                       "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
}

// sleepFn is swapped out by tests to avoid real backoff waits.
var sleepFn = time.Sleep

// IsPDF reports whether content starts with the PDF magic bytes.
func IsPDF(content []byte) bool {
	return bytes.HasPrefix(content, pdfMagic)
}

// Executor downloads URLs to local PDF files.
type Executor struct {
	client  *http.Client
	cfg     types.DownloadConfig
	browser browser.ChallengeFetcher
	w       io.Writer
}

// NewExecutor builds an Executor. The browser fetcher may be a Noop;
// it is consulted only for challenge-protected domains after the plain
// HTTP path has failed. Warnings are written to w.
func NewExecutor(client *http.Client, cfg types.DownloadConfig, challenge browser.ChallengeFetcher, w io.Writer) *Executor {
	if challenge == nil {
		challenge = browser.Noop{}
	}
	return &Executor{client: client, cfg: cfg, browser: challenge, w: w}
}

// Fetch downloads url to dest, retrying up to MaxRetries times with
// 2^attempt-second backoff on transport errors and HTTP error statuses.
// The file appears at dest only after the body has passed PDF signature
// validation, so dest never holds a non-PDF. No error escapes: the
// return value is the only outcome signal.
func (e *Executor) Fetch(url, dest, referer string) bool {
	maxRetries := e.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		body, err := e.fetchOnce(url, referer)
		if err == nil {
			if !IsPDF(body) {
				fmt.Fprintf(e.w, "  warning: not a PDF: %s\n", url)
				return e.tryBrowser(url, dest)
			}
			if err := writeAtomic(dest, body); err != nil {
				fmt.Fprintf(e.w, "  warning: saving %s: %v\n", dest, err)
				return false
			}
			return true
		}

		if attempt < maxRetries-1 {
			wait := time.Duration(1<<uint(attempt)) * time.Second
			fmt.Fprintf(e.w, "  warning: attempt %d/%d failed for %s: %v, retrying in %v\n",
				attempt+1, maxRetries, url, err, wait)
			sleepFn(wait)
		} else {
			fmt.Fprintf(e.w, "  warning: all %d attempts failed for %s: %v\n", maxRetries, url, err)
		}
	}

	return e.tryBrowser(url, dest)
}

// fetchOnce performs a single GET and returns the body on HTTP 2xx.
func (e *Executor) fetchOnce(url, referer string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	if ua := e.cfg.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

// tryBrowser escalates to the headless-browser collaborator for
// JavaScript-challenge domains. Its outcome folds into the same
// boolean contract as the HTTP path.
func (e *Executor) tryBrowser(url, dest string) bool {
	if !browser.ShouldTry(url) {
		return false
	}
	switch e.browser.Fetch(url, dest) {
	case browser.OutcomeOK:
		fmt.Fprintf(e.w, "  browser download succeeded: %s\n", url)
		return true
	default:
		return false
	}
}

// writeAtomic writes data to dest via a temp file and rename.
func writeAtomic(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
