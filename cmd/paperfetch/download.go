// Copyright Awele Larsen, 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/awlarsen/paperfetch/internal/browser"
	"github.com/awlarsen/paperfetch/internal/download"
	"github.com/awlarsen/paperfetch/internal/ledger"
	"github.com/awlarsen/paperfetch/internal/pipeline"
	"github.com/awlarsen/paperfetch/internal/rotate"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Run the acquisition pipeline over the dataset",
	Long: `Download runs the ordered source fallback sequence for every paper in
the dataset, recording progress in the manifest. Re-running resumes from
the manifest: papers already downloaded are never re-attempted.

Phases: DOI enrichment, open access, Unpaywall, URL transforms, Google
Scholar, repository APIs (CORE, EuropePMC, arXiv), transforms again,
Crossref. The institutional proxy and Sci-Hub phases run only with
their explicit opt-in flags.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().Bool("open-access-only", false, "only download papers with direct open access URLs")
	downloadCmd.Flags().Bool("scholar-only", false, "only search Google Scholar for pending papers")
	downloadCmd.Flags().Bool("repos-only", false, "only run repository API phases (CORE, EuropePMC, arXiv)")
	downloadCmd.Flags().Duration("scholar-delay", 0, "pause between Google Scholar requests (overrides config)")
	downloadCmd.Flags().Bool("use-vpn", false, "rotate VPN exit identity during Scholar and CORE phases")
	downloadCmd.Flags().Bool("use-proxy-institutional", false, "retry paywalled papers through the institutional proxy")
	downloadCmd.Flags().Bool("use-scihub", false, "use Sci-Hub as a last resort (explicit opt-in)")
	downloadCmd.Flags().Bool("retry-failed", false, "reset papers marked failed back to pending")
	downloadCmd.Flags().Bool("retry-not-found", false, "reset papers marked not_found back to pending")
	downloadCmd.Flags().String("unpaywall-email", "", "contact email for the Unpaywall API (overrides config)")
	downloadCmd.Flags().Bool("skip-unpaywall", false, "skip the Unpaywall phase")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if d, _ := cmd.Flags().GetDuration("scholar-delay"); d > 0 {
		cfg.Scholar.Delay = d
	}
	if email, _ := cmd.Flags().GetString("unpaywall-email"); email != "" {
		cfg.Unpaywall.Email = email
	}

	useVPN, _ := cmd.Flags().GetBool("use-vpn")
	useProxy, _ := cmd.Flags().GetBool("use-proxy-institutional")
	useSciHub, _ := cmd.Flags().GetBool("use-scihub")

	opts := pipeline.Options{
		UseProxy:  useProxy,
		UseSciHub: useSciHub,
	}
	opts.OpenAccessOnly, _ = cmd.Flags().GetBool("open-access-only")
	opts.ScholarOnly, _ = cmd.Flags().GetBool("scholar-only")
	opts.ReposOnly, _ = cmd.Flags().GetBool("repos-only")
	opts.SkipUnpaywall, _ = cmd.Flags().GetBool("skip-unpaywall")
	opts.RetryFailed, _ = cmd.Flags().GetBool("retry-failed")
	opts.RetryNotFound, _ = cmd.Flags().GetBool("retry-not-found")

	client := &http.Client{Timeout: httpTimeout(cfg)}

	// The rotation tool is a hard requirement only when explicitly
	// requested.
	var vpn *rotate.Scheduler
	if useVPN {
		vpn = rotate.New(cfg.VPN, client, os.Stdout)
		if !vpn.IsAvailable() {
			return fmt.Errorf("--use-vpn specified but %s not found on PATH", cfg.VPN.Tool)
		}
		status := vpn.GetStatus()
		fmt.Printf("VPN: connected=%v location=%q ip=%s\n", status.Connected, status.Location, status.IP)
		if !status.Connected {
			fmt.Println("performing initial VPN connection")
			if !vpn.Rotate() {
				return fmt.Errorf("failed to establish initial VPN connection")
			}
		}
	}

	var challenge browser.ChallengeFetcher
	if cfg.Browser.Enabled {
		challenge = browser.NewChromedp(cfg.Browser.Timeout, os.Stdout)
	}
	dl := download.NewExecutor(client, cfg.Download, challenge, os.Stdout)

	var led *ledger.Ledger
	if cfg.Ledger.Enabled {
		var err error
		led, err = ledger.Open(cfg.Ledger.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: attempt ledger disabled: %v\n", err)
		} else {
			defer led.Close()
		}
	}

	p, err := pipeline.New(cfg, client, dl, vpn, led, os.Stdout)
	if err != nil {
		return err
	}
	return p.Run(cmd.Context(), opts)
}
