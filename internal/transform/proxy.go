// Copyright Awele Larsen, 2026. All rights reserved.

package transform

import (
	"net/url"
	"strings"

	"github.com/awlarsen/paperfetch/internal/manifest"
	"github.com/awlarsen/paperfetch/pkg/types"
)

// DefaultPublisherDomains lists paywalled publishers an institutional
// proxy can typically unlock.
var DefaultPublisherDomains = []string{
	"ieeexplore.ieee.org",
	"link.springer.com",
	"sciencedirect.com",
	"elsevier.com",
	"wiley.com",
	"onlinelibrary.wiley.com",
	"academic.oup.com",
	"dl.acm.org",
	"tandfonline.com",
	"sagepub.com",
	"nature.com",
	"science.org",
	"jstor.org",
	"cambridge.org",
	"karger.com",
	"worldscientific.com",
	"degruyter.com",
	"emerald.com",
	"liebertpub.com",
	"ingentaconnect.com",
	"doi.org",
}

// RewriteURL prefixes a publisher URL with the institutional proxy base
// when the URL's domain matches a known publisher. Returns "" when the
// domain is not proxyable.
func RewriteURL(rawURL, proxyBase string, publisherDomains []string) string {
	if rawURL == "" || proxyBase == "" {
		return ""
	}
	if len(publisherDomains) == 0 {
		publisherDomains = DefaultPublisherDomains
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	domain := strings.ToLower(parsed.Hostname())

	for _, pub := range publisherDomains {
		if strings.Contains(domain, pub) {
			return proxyBase + rawURL
		}
	}
	return ""
}

// ProxyCandidate pairs a paper with its proxied URL.
type ProxyCandidate struct {
	PaperID string
	URL     string
}

// ProxyCandidates returns proxied URLs for failed and not-found papers.
// Papers without a recorded URL fall back to a doi.org URL when a DOI
// is known.
func ProxyCandidates(m *manifest.Manifest, cfg types.ProxyConfig) []ProxyCandidate {
	var out []ProxyCandidate
	for _, id := range m.ByStatus(types.StatusFailed, types.StatusNotFound) {
		entry := m.Get(id)
		if entry == nil {
			continue
		}
		rawURL := entry.URL
		if rawURL == "" {
			if entry.DOI == "" {
				continue
			}
			rawURL = "https://doi.org/" + entry.DOI
		}
		if proxied := RewriteURL(rawURL, cfg.BaseURL, cfg.PublisherDomains); proxied != "" {
			out = append(out, ProxyCandidate{PaperID: id, URL: proxied})
		}
	}
	return out
}
