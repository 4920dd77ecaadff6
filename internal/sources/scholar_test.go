// Copyright Awele Larsen, 2026. All rights reserved.

package sources

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

const scholarResultsHTML = `<html><body>
<div class="gs_r">
  <div class="gs_ggs"><a href="https://pub.example/other.pdf">[PDF]</a></div>
  <h3 class="gs_rt"><a>Completely Unrelated Survey of Something Else</a></h3>
</div>
<div class="gs_r">
  <div class="gs_ggs"><a href="https://pub.example/paper.pdf">[PDF] pub.example</a></div>
  <h3 class="gs_rt"><a>Graph Mining at Scale</a></h3>
</div>
<div class="gs_r">
  <h3 class="gs_rt"><a>Graph Mining at Scale</a></h3>
</div>
</body></html>`

func TestScholarFindsEprintLink(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "Graph Mining at Scale" {
			t.Errorf("q = %q", q)
		}
		if ua := r.Header.Get("User-Agent"); ua != scholarUserAgent {
			t.Errorf("User-Agent = %q", ua)
		}
		io.WriteString(w, scholarResultsHTML)
	}))
	defer ts.Close()

	old := scholarBase
	scholarBase = ts.URL
	defer func() { scholarBase = old }()

	got, limited := Scholar(ts.Client(), "Graph Mining at Scale", 0, io.Discard)
	if limited {
		t.Error("unexpected rate-limit signal")
	}
	if got != "https://pub.example/paper.pdf" {
		t.Errorf("Scholar = %q", got)
	}
}

func TestScholarNoMatchingResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, scholarResultsHTML)
	}))
	defer ts.Close()

	old := scholarBase
	scholarBase = ts.URL
	defer func() { scholarBase = old }()

	got, limited := Scholar(ts.Client(), "Deep Oceanography of Tidal Basins", 0, io.Discard)
	if got != "" || limited {
		t.Errorf("Scholar = %q, limited = %v", got, limited)
	}
}

func TestScholar429IsRateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	old := scholarBase
	scholarBase = ts.URL
	defer func() { scholarBase = old }()

	got, limited := Scholar(ts.Client(), "Graph Mining at Scale", 0, io.Discard)
	if got != "" {
		t.Errorf("Scholar = %q", got)
	}
	if !limited {
		t.Error("429 must surface the rate-limit signal")
	}
}

func TestScholarCaptchaIsRateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `<html><body>
<p>Our systems have detected unusual traffic from your computer network.</p>
<div id="gs_captcha_ccl"></div>
</body></html>`)
	}))
	defer ts.Close()

	old := scholarBase
	scholarBase = ts.URL
	defer func() { scholarBase = old }()

	_, limited := Scholar(ts.Client(), "Graph Mining at Scale", 0, io.Discard)
	if !limited {
		t.Error("captcha interstitial must surface the rate-limit signal")
	}
}

func TestScholarEmptyTitle(t *testing.T) {
	got, limited := Scholar(http.DefaultClient, "", 0, io.Discard)
	if got != "" || limited {
		t.Errorf("Scholar = %q, limited = %v", got, limited)
	}
}
