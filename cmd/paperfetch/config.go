// Copyright Awele Larsen, 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/awlarsen/paperfetch/internal/secrets"
	"github.com/awlarsen/paperfetch/pkg/types"
)

const defaultUserAgent = "paperfetch/1.0"

// setDefaults registers every configuration knob with viper so a bare
// install works without a config file.
func setDefaults() {
	viper.SetDefault("dataset_path", "data/papers.json")
	viper.SetDefault("manifest_path", "data/download_manifest.json")

	viper.SetDefault("download.timeout", "30s")
	viper.SetDefault("download.user_agent", defaultUserAgent)
	viper.SetDefault("download.max_retries", 3)
	viper.SetDefault("download.delay", "1s")
	viper.SetDefault("download.pdf_dir", "data/pdfs")

	viper.SetDefault("unpaywall.email", "")
	viper.SetDefault("unpaywall.delay", "100ms")

	viper.SetDefault("scholar.delay", "10s")
	viper.SetDefault("scholar.delay_after_rotation", "3s")

	viper.SetDefault("core.api_key", "")
	viper.SetDefault("core.delay", "1s")
	viper.SetDefault("core.max_retries", 3)
	viper.SetDefault("core.backoff_factor", 2.0)

	viper.SetDefault("europepmc.delay", "200ms")
	viper.SetDefault("arxiv.delay", "3s")

	viper.SetDefault("crossref.mailto", "")
	viper.SetDefault("crossref.delay", "500ms")

	viper.SetDefault("proxy.base_url", "")
	viper.SetDefault("proxy.publisher_domains", []string{})

	viper.SetDefault("scihub.mirrors", []string{})
	viper.SetDefault("scihub.delay", "3s")

	viper.SetDefault("s2_api.api_key", "")
	viper.SetDefault("s2_api.batch_size", 500)
	viper.SetDefault("s2_api.delay", "1s")

	viper.SetDefault("vpn.tool", "expressvpnctl")
	viper.SetDefault("vpn.rotation_strategy", "smart")
	viper.SetDefault("vpn.preferred_locations", []string{})
	viper.SetDefault("vpn.connection_timeout", "30s")
	viper.SetDefault("vpn.post_connect_delay", "5s")
	viper.SetDefault("vpn.min_rotation_interval", "60s")
	viper.SetDefault("vpn.verify_ip_change", true)
	viper.SetDefault("vpn.max_rotation_failures", 3)
	viper.SetDefault("vpn.rotate_every_n_papers", 20)

	viper.SetDefault("browser.enabled", true)
	viper.SetDefault("browser.timeout", "45s")

	viper.SetDefault("ledger.enabled", true)
	viper.SetDefault("ledger.path", "data/attempts.db")
}

// loadConfig assembles the typed Config from viper and overlays secrets
// for any credential not already set.
func loadConfig() types.Config {
	cfg := types.Config{
		DatasetPath:  viper.GetString("dataset_path"),
		ManifestPath: viper.GetString("manifest_path"),
		Download: types.DownloadConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("download.timeout"),
				UserAgent: viper.GetString("download.user_agent"),
			},
			MaxRetries: viper.GetInt("download.max_retries"),
			Delay:      viper.GetDuration("download.delay"),
			PDFDir:     viper.GetString("download.pdf_dir"),
		},
		Unpaywall: types.UnpaywallConfig{
			Email: viper.GetString("unpaywall.email"),
			Delay: viper.GetDuration("unpaywall.delay"),
		},
		Scholar: types.ScholarConfig{
			Delay:              viper.GetDuration("scholar.delay"),
			DelayAfterRotation: viper.GetDuration("scholar.delay_after_rotation"),
		},
		CORE: types.COREConfig{
			APIKey:        viper.GetString("core.api_key"),
			Delay:         viper.GetDuration("core.delay"),
			MaxRetries:    viper.GetInt("core.max_retries"),
			BackoffFactor: viper.GetFloat64("core.backoff_factor"),
		},
		EuropePMC: types.EuropePMCConfig{
			Delay: viper.GetDuration("europepmc.delay"),
		},
		Arxiv: types.ArxivConfig{
			Delay: viper.GetDuration("arxiv.delay"),
		},
		Crossref: types.CrossrefConfig{
			Mailto: viper.GetString("crossref.mailto"),
			Delay:  viper.GetDuration("crossref.delay"),
		},
		Proxy: types.ProxyConfig{
			BaseURL:          viper.GetString("proxy.base_url"),
			PublisherDomains: viper.GetStringSlice("proxy.publisher_domains"),
		},
		SciHub: types.SciHubConfig{
			Mirrors: viper.GetStringSlice("scihub.mirrors"),
			Delay:   viper.GetDuration("scihub.delay"),
		},
		SemanticScholar: types.SemanticScholarConfig{
			APIKey:    viper.GetString("s2_api.api_key"),
			BatchSize: viper.GetInt("s2_api.batch_size"),
			Delay:     viper.GetDuration("s2_api.delay"),
		},
		VPN: types.VPNConfig{
			Tool:                viper.GetString("vpn.tool"),
			Strategy:            viper.GetString("vpn.rotation_strategy"),
			Locations:           viper.GetStringSlice("vpn.preferred_locations"),
			ConnectionTimeout:   viper.GetDuration("vpn.connection_timeout"),
			PostConnectDelay:    viper.GetDuration("vpn.post_connect_delay"),
			MinRotationInterval: viper.GetDuration("vpn.min_rotation_interval"),
			VerifyIPChange:      viper.GetBool("vpn.verify_ip_change"),
			MaxRotationFailures: viper.GetInt("vpn.max_rotation_failures"),
			RotateEveryN:        viper.GetInt("vpn.rotate_every_n_papers"),
		},
		Browser: types.BrowserConfig{
			Enabled: viper.GetBool("browser.enabled"),
			Timeout: viper.GetDuration("browser.timeout"),
		},
		Ledger: types.LedgerConfig{
			Enabled: viper.GetBool("ledger.enabled"),
			Path:    viper.GetString("ledger.path"),
		},
	}

	secrets.Apply(&cfg, loadedSecrets)
	return cfg
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a paperfetch.yaml with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "paperfetch.yaml"
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		data, err := yaml.Marshal(loadConfig())
		if err != nil {
			return fmt.Errorf("marshaling defaults: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// httpTimeout falls back to 30 seconds when the config leaves the
// timeout unset.
func httpTimeout(cfg types.Config) time.Duration {
	if cfg.Download.Timeout > 0 {
		return cfg.Download.Timeout
	}
	return 30 * time.Second
}
