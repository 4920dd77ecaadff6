// Copyright Awele Larsen, 2026. All rights reserved.

package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/awlarsen/paperfetch/pkg/types"
)

var s2APIBase = "https://api.semanticscholar.org/graph/v1"

type s2BatchRequest struct {
	IDs []string `json:"ids"`
}

type s2Paper struct {
	PaperID     string `json:"paperId"`
	ExternalIDs struct {
		DOI string `json:"DOI"`
	} `json:"externalIds"`
}

// BatchDOIs looks up DOIs for the given paper IDs via the Semantic
// Scholar batch endpoint. IDs are sent in chunks of cfg.BatchSize and
// the result maps paper ID to DOI; papers without a DOI are absent.
func BatchDOIs(client *http.Client, ids []string, cfg types.SemanticScholarConfig, w io.Writer) map[string]string {
	out := make(map[string]string)
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		s2Batch(client, ids[start:end], cfg, out, w)
		if end < len(ids) {
			time.Sleep(cfg.Delay)
		}
	}
	return out
}

func s2Batch(client *http.Client, ids []string, cfg types.SemanticScholarConfig, out map[string]string, w io.Writer) {
	body, err := json.Marshal(s2BatchRequest{IDs: ids})
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, s2APIBase+"/paper/batch?fields=externalIds", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("x-api-key", cfg.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(w, "  warning: Semantic Scholar batch failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(w, "  warning: Semantic Scholar batch returned %d\n", resp.StatusCode)
		return
	}

	var papers []s2Paper
	if err := json.NewDecoder(resp.Body).Decode(&papers); err != nil {
		fmt.Fprintf(w, "  warning: parsing Semantic Scholar response: %v\n", err)
		return
	}
	for _, p := range papers {
		if p.PaperID != "" && p.ExternalIDs.DOI != "" {
			out[p.PaperID] = p.ExternalIDs.DOI
		}
	}
}
