// Copyright Awele Larsen, 2026. All rights reserved.

package sources

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSciHubEmbeddedIframe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/10.1/x" {
			t.Errorf("path = %q", r.URL.Path)
		}
		io.WriteString(w, `<html><body>
<iframe id="pdf" src="//dacemirror.example/journal/paper.pdf#view=FitH"></iframe>
</body></html>`)
	}))
	defer ts.Close()

	got := SciHub(ts.Client(), "10.1/x", []string{ts.URL}, 0, io.Discard)
	if got != "https://dacemirror.example/journal/paper.pdf#view=FitH" {
		t.Errorf("SciHub = %q", got)
	}
}

func TestSciHubFallsThroughMirrors(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer dead.Close()
	alive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `<html><body><embed id="pdf" src="/downloads/paper.pdf"></embed></body></html>`)
	}))
	defer alive.Close()

	got := SciHub(alive.Client(), "10.1/x", []string{dead.URL, alive.URL}, 0, io.Discard)
	if got != alive.URL+"/downloads/paper.pdf" {
		t.Errorf("SciHub = %q", got)
	}
}

func TestSciHubNoEmbed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `<html><body><p>article not found</p></body></html>`)
	}))
	defer ts.Close()

	if got := SciHub(ts.Client(), "10.1/x", []string{ts.URL}, 0, io.Discard); got != "" {
		t.Errorf("SciHub = %q", got)
	}
}

func TestSciHubEmptyDOI(t *testing.T) {
	if got := SciHub(http.DefaultClient, "", nil, 0, io.Discard); got != "" {
		t.Errorf("SciHub with empty DOI = %q", got)
	}
}

func TestScihubNormalize(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"scheme relative", "//mirror.example/p.pdf", "https://mirror.example/p.pdf"},
		{"absolute", "https://cdn.example/p.pdf", "https://cdn.example/p.pdf"},
		{"rooted", "/downloads/p.pdf", "https://sci-hub.se/downloads/p.pdf"},
		{"relative", "downloads/p.pdf", "https://sci-hub.se/downloads/p.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scihubNormalize("https://sci-hub.se", tt.src); got != tt.want {
				t.Errorf("scihubNormalize(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}
