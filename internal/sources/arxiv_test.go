// Copyright Awele Larsen, 2026. All rights reserved.

package sources

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>An Entirely Different Subject Altogether</title>
    <link title="pdf" href="https://arxiv.example/pdf/0001.0001"/>
  </entry>
  <entry>
    <title>Graph Mining
 at Scale</title>
    <link href="https://arxiv.example/abs/0001.0002"/>
    <link title="pdf" href="https://arxiv.example/pdf/0001.0002"/>
  </entry>
</feed>`

func TestArxivMatchesTitle(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("search_query"); q != `ti:"Graph Mining at Scale"` {
			t.Errorf("search_query = %q", q)
		}
		io.WriteString(w, arxivFeedXML)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	got := Arxiv(ts.Client(), "Graph Mining at Scale", 0, io.Discard)
	if got != "https://arxiv.example/pdf/0001.0002.pdf" {
		t.Errorf("Arxiv = %q", got)
	}
}

func TestArxivRejectsUnrelatedEntries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, arxivFeedXML)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	got := Arxiv(ts.Client(), "Quantum Chromodynamics for Beginners", 0, io.Discard)
	if got != "" {
		t.Errorf("Arxiv = %q for a title not in the feed", got)
	}
}

func TestArxivKeepsExistingPDFSuffix(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>Graph Mining at Scale</title>
    <link title="pdf" href="https://arxiv.example/pdf/0001.0003.pdf"/>
  </entry>
</feed>`)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	got := Arxiv(ts.Client(), "Graph Mining at Scale", 0, io.Discard)
	if got != "https://arxiv.example/pdf/0001.0003.pdf" {
		t.Errorf("Arxiv = %q", got)
	}
}

func TestArxivEmptyTitle(t *testing.T) {
	if got := Arxiv(http.DefaultClient, "", 0, io.Discard); got != "" {
		t.Errorf("Arxiv with empty title = %q", got)
	}
}
