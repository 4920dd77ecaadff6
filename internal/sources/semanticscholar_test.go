// Copyright Awele Larsen, 2026. All rights reserved.

package sources

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awlarsen/paperfetch/pkg/types"
)

func TestBatchDOIs(t *testing.T) {
	var gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "externalIds", r.URL.Query().Get("fields"))
		gotKey = r.Header.Get("x-api-key")

		var req s2BatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"p1", "p2", "p3"}, req.IDs)

		io.WriteString(w, `[
			{"paperId": "p1", "externalIds": {"DOI": "10.1/p1"}},
			{"paperId": "p2", "externalIds": {}},
			null
		]`)
	}))
	defer ts.Close()

	old := s2APIBase
	s2APIBase = ts.URL
	defer func() { s2APIBase = old }()

	cfg := types.SemanticScholarConfig{APIKey: "s2-key"}
	got := BatchDOIs(ts.Client(), []string{"p1", "p2", "p3"}, cfg, io.Discard)
	assert.Equal(t, map[string]string{"p1": "10.1/p1"}, got)
	assert.Equal(t, "s2-key", gotKey)
}

func TestBatchDOIsChunks(t *testing.T) {
	var batches [][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req s2BatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		batches = append(batches, req.IDs)

		var papers []s2Paper
		for _, id := range req.IDs {
			p := s2Paper{PaperID: id}
			p.ExternalIDs.DOI = "10.1/" + id
			papers = append(papers, p)
		}
		require.NoError(t, json.NewEncoder(w).Encode(papers))
	}))
	defer ts.Close()

	old := s2APIBase
	s2APIBase = ts.URL
	defer func() { s2APIBase = old }()

	cfg := types.SemanticScholarConfig{BatchSize: 2}
	got := BatchDOIs(ts.Client(), []string{"a", "b", "c"}, cfg, io.Discard)
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"a", "b"}, batches[0])
	assert.Equal(t, []string{"c"}, batches[1])
	assert.Equal(t, "10.1/c", got["c"])
}

func TestBatchDOIsServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	old := s2APIBase
	s2APIBase = ts.URL
	defer func() { s2APIBase = old }()

	got := BatchDOIs(ts.Client(), []string{"p1"}, types.SemanticScholarConfig{}, io.Discard)
	assert.Empty(t, got)
}
