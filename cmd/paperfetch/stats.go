// Copyright Awele Larsen, 2026. All rights reserved.

package main

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/awlarsen/paperfetch/internal/ledger"
	"github.com/awlarsen/paperfetch/internal/manifest"
	"github.com/awlarsen/paperfetch/pkg/types"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show acquisition statistics from the manifest",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	man, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}
	if man.Len() == 0 {
		fmt.Println("no manifest found, run 'paperfetch download' first")
		return nil
	}

	counts := man.CountByStatus()
	total := man.Len()

	fmt.Printf("Total papers: %d\n", total)
	fmt.Printf("  Downloaded:  %d\n", counts[types.StatusDownloaded])
	fmt.Printf("  Pending:     %d\n", counts[types.StatusPending])
	fmt.Printf("  Not found:   %d\n", counts[types.StatusNotFound])
	fmt.Printf("  Failed:      %d\n", counts[types.StatusFailed])

	withDOI := len(man.Filter(func(e *types.ManifestEntry) bool { return e.DOI != "" }))
	fmt.Printf("\nDOI coverage: %d/%d (%.0f%%)\n", withDOI, total, 100*float64(withDOI)/float64(total))

	// Per-source breakdown for downloaded papers.
	bySource := make(map[string]int)
	for _, id := range man.ByStatus(types.StatusDownloaded) {
		src := man.Get(id).Source
		if src == "" {
			src = "unknown"
		}
		bySource[src]++
	}
	if len(bySource) > 0 {
		fmt.Println("\nDownloaded by source:")
		srcs := make([]string, 0, len(bySource))
		for s := range bySource {
			srcs = append(srcs, s)
		}
		sort.Strings(srcs)
		for _, s := range srcs {
			fmt.Printf("  %s: %d\n", s, bySource[s])
		}
	}

	printFailureDomains(man)

	if cfg.Ledger.Enabled {
		printLedgerSummary(cfg.Ledger.Path)
	}
	return nil
}

// printFailureDomains shows which publisher domains account for the
// failed downloads, most frequent first.
func printFailureDomains(man *manifest.Manifest) {
	byDomain := make(map[string]int)
	for _, id := range man.ByStatus(types.StatusFailed) {
		e := man.Get(id)
		if e.URL == "" {
			continue
		}
		parsed, err := url.Parse(e.URL)
		if err != nil || parsed.Hostname() == "" {
			byDomain["unknown"]++
			continue
		}
		byDomain[strings.TrimPrefix(parsed.Hostname(), "www.")]++
	}
	if len(byDomain) == 0 {
		return
	}

	type domainCount struct {
		domain string
		count  int
	}
	ranked := make([]domainCount, 0, len(byDomain))
	for d, c := range byDomain {
		ranked = append(ranked, domainCount{d, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].domain < ranked[j].domain
	})
	if len(ranked) > 15 {
		ranked = ranked[:15]
	}

	fmt.Println("\nFailed downloads by domain:")
	for _, dc := range ranked {
		fmt.Printf("  %s: %d\n", dc.domain, dc.count)
	}
}

// printLedgerSummary shows per-phase attempt counts from the attempt
// ledger when one exists.
func printLedgerSummary(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	led, err := ledger.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: opening ledger: %v\n", err)
		return
	}
	defer led.Close()

	rows, err := led.Summary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: reading ledger: %v\n", err)
		return
	}
	if len(rows) == 0 {
		return
	}

	fmt.Println("\nAttempts by phase:")
	for _, r := range rows {
		fmt.Printf("  %s: %d attempts, %d downloaded\n", r.Phase, r.Attempts, r.Successes)
	}
}
