// Copyright Awele Larsen, 2026. All rights reserved.

package transform

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidatesPMC(t *testing.T) {
	got := Candidates(nil, "https://www.ncbi.nlm.nih.gov/pmc/articles/pmc123456/")
	assert.Equal(t, []string{
		"https://europepmc.org/articles/PMC123456?format=pdf",
		"https://www.ncbi.nlm.nih.gov/pmc/articles/PMC123456/pdf/main.pdf",
		"https://www.ncbi.nlm.nih.gov/pmc/articles/PMC123456/pdf/",
		"https://europepmc.org/backend/ptpmcrender.fcgi?accid=PMC123456&blobtype=pdf",
	}, got)
}

func TestCandidatesRules(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want []string
	}{
		{
			"biorxiv",
			"https://www.biorxiv.org/content/10.1101/2023.01.01.522000v1",
			[]string{"https://www.biorxiv.org/content/10.1101/2023.01.01.522000v1.full.pdf"},
		},
		{
			"biorxiv already pdf",
			"https://www.biorxiv.org/content/10.1101/2023.01.01.522000v1.full.pdf",
			nil,
		},
		{
			"mdpi",
			"https://www.mdpi.com/2073-4441/12/10/2873",
			[]string{"https://www.mdpi.com/2073-4441/12/10/2873/pdf"},
		},
		{
			"springer",
			"https://link.springer.com/article/10.1007/s10618-020-00696-7",
			[]string{"https://link.springer.com/content/pdf/10.1007/s10618-020-00696-7.pdf"},
		},
		{
			"ieee",
			"https://ieeexplore.ieee.org/document/9378239",
			[]string{"https://ieeexplore.ieee.org/stampPDF/getPDF.jsp?arnumber=9378239"},
		},
		{
			"acm",
			"https://dl.acm.org/doi/10.1145/3292500.3330672",
			[]string{"https://dl.acm.org/doi/pdf/10.1145/3292500.3330672"},
		},
		{
			"acm already pdf",
			"https://dl.acm.org/doi/pdf/10.1145/3292500.3330672",
			nil,
		},
		{
			"oup",
			"https://academic.oup.com/bioinformatics/article/36/10/3263/5811232",
			[]string{"https://academic.oup.com/bioinformatics/article/36/10/3263/5811232?pdfformat=full"},
		},
		{
			"unknown domain",
			"https://example.org/papers/123",
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Candidates(nil, tt.url))
		})
	}
}

func TestCandidatesDOIResolution(t *testing.T) {
	old := Resolver
	Resolver = func(_ *http.Client, rawURL string) string {
		if rawURL == "https://doi.org/10.1145/3292500.3330672" {
			return "https://dl.acm.org/doi/10.1145/3292500.3330672"
		}
		return ""
	}
	defer func() { Resolver = old }()

	got := Candidates(nil, "https://doi.org/10.1145/3292500.3330672")
	assert.Equal(t, []string{
		"https://dl.acm.org/doi/10.1145/3292500.3330672",
		"https://dl.acm.org/doi/pdf/10.1145/3292500.3330672",
	}, got)
}

func TestCandidatesDOIResolutionDepthGuard(t *testing.T) {
	calls := 0
	old := Resolver
	Resolver = func(_ *http.Client, rawURL string) string {
		calls++
		// Always lands on another doi.org URL, so without the depth guard
		// the recursion would never bottom out.
		return rawURL + "/next"
	}
	defer func() { Resolver = old }()

	got := Candidates(nil, "https://doi.org/10.1/x")
	assert.Equal(t, maxResolveDepth, calls)
	assert.Len(t, got, maxResolveDepth)
}

func TestCandidatesBadURL(t *testing.T) {
	assert.Nil(t, Candidates(nil, "://not a url"))
}
