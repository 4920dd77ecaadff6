// Copyright Awele Larsen, 2026. All rights reserved.

// Package browser contains the headless-browser fallback for publisher
// domains whose JavaScript challenges block plain HTTP clients.
package browser

import "net/url"

// Outcome classifies a browser fetch attempt.
type Outcome int

const (
	// OutcomeOK means a PDF was saved to the destination path.
	OutcomeOK Outcome = iota

	// OutcomeNotPDF means the page loaded but yielded no PDF.
	OutcomeNotPDF

	// OutcomeError means browser automation itself failed.
	OutcomeError
)

// ChallengeFetcher downloads a PDF through a real browser. Implementations
// report failure through the Outcome; no error crosses this boundary.
type ChallengeFetcher interface {
	Fetch(rawURL, dest string) Outcome
}

// challengeDomains lists publishers where Cloudflare-style JavaScript
// challenges block non-browser clients.
var challengeDomains = []string{
	"sciencedirect.com",
	"academic.oup.com",
	"dl.acm.org",
	"emerald.com",
	"tandfonline.com",
	"onlinelibrary.wiley.com",
	"downloads.hindawi.com",
	"link.springer.com",
}

// ShouldTry reports whether rawURL is on a challenge-protected domain
// worth escalating to browser automation.
func ShouldTry(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, d := range challengeDomains {
		if host == d || len(host) > len(d) && host[len(host)-len(d)-1] == '.' && host[len(host)-len(d):] == d {
			return true
		}
	}
	return false
}

// Noop implements ChallengeFetcher but always reports that browser
// automation is not available in the current configuration.
type Noop struct{}

// Fetch always returns OutcomeError.
func (Noop) Fetch(string, string) Outcome { return OutcomeError }
