// Copyright Awele Larsen, 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DownloadConfig holds settings for the PDF download executor.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxRetries is the number of attempts per URL; backoff between
	// attempts is 2^attempt seconds.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Delay is the courtesy pause after each download attempt.
	Delay time.Duration `json:"delay" yaml:"delay"`

	// PDFDir is the directory that receives downloaded PDFs.
	PDFDir string `json:"pdf_dir" yaml:"pdf_dir"`
}

// UnpaywallConfig holds settings for the Unpaywall lookup phase.
// The phase is skipped entirely unless Email is set.
type UnpaywallConfig struct {
	Email string        `json:"email,omitempty" yaml:"email,omitempty"`
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// ScholarConfig holds settings for the Google Scholar phase.
type ScholarConfig struct {
	// Delay is the steady-state pause between Scholar requests.
	Delay time.Duration `json:"delay" yaml:"delay"`

	// DelayAfterRotation is the reduced pause used right after a VPN
	// rotation; it ramps back up to Delay by one second per request.
	DelayAfterRotation time.Duration `json:"delay_after_rotation" yaml:"delay_after_rotation"`
}

// COREConfig holds settings for the CORE.ac.uk repository lookup.
type COREConfig struct {
	APIKey        string        `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Delay         time.Duration `json:"delay" yaml:"delay"`
	MaxRetries    int           `json:"max_retries" yaml:"max_retries"`
	BackoffFactor float64       `json:"backoff_factor" yaml:"backoff_factor"`
}

// EuropePMCConfig holds settings for the EuropePMC repository lookup.
type EuropePMCConfig struct {
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// ArxivConfig holds settings for the arXiv title search.
// arXiv asks for at least 3 seconds between API calls.
type ArxivConfig struct {
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// CrossrefConfig holds settings for DOI content negotiation and the
// Crossref works API. Mailto joins the polite pool for better limits.
type CrossrefConfig struct {
	Mailto string        `json:"mailto,omitempty" yaml:"mailto,omitempty"`
	Delay  time.Duration `json:"delay" yaml:"delay"`
}

// ProxyConfig holds settings for institutional proxy URL rewriting.
// The phase is opt-in and requires BaseURL.
type ProxyConfig struct {
	// BaseURL is the proxy prefix, e.g. "https://login.proxy.itu.dk/login?url=".
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// PublisherDomains overrides the built-in paywalled-domain list.
	PublisherDomains []string `json:"publisher_domains,omitempty" yaml:"publisher_domains,omitempty"`
}

// SciHubConfig holds settings for the Sci-Hub mirror lookup (explicit
// opt-in only).
type SciHubConfig struct {
	Mirrors []string      `json:"mirrors,omitempty" yaml:"mirrors,omitempty"`
	Delay   time.Duration `json:"delay" yaml:"delay"`
}

// SemanticScholarConfig holds settings for batch DOI enrichment.
type SemanticScholarConfig struct {
	APIKey    string        `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BatchSize int           `json:"batch_size" yaml:"batch_size"`
	Delay     time.Duration `json:"delay" yaml:"delay"`
}

// VPNConfig holds settings for the rotation scheduler.
type VPNConfig struct {
	// Tool is the VPN CLI binary, e.g. "expressvpnctl".
	Tool string `json:"tool" yaml:"tool"`

	// Strategy selects the next identity: random, sequential, or smart.
	Strategy string `json:"rotation_strategy" yaml:"rotation_strategy"`

	// Locations is the pool of candidate egress locations.
	Locations []string `json:"preferred_locations,omitempty" yaml:"preferred_locations,omitempty"`

	// ConnectionTimeout bounds connect/disconnect subprocess calls.
	ConnectionTimeout time.Duration `json:"connection_timeout" yaml:"connection_timeout"`

	// PostConnectDelay is the settle pause after a successful connect.
	PostConnectDelay time.Duration `json:"post_connect_delay" yaml:"post_connect_delay"`

	// MinRotationInterval is the cooldown between rotations; a rotate
	// call inside the cooldown sleeps out the remainder.
	MinRotationInterval time.Duration `json:"min_rotation_interval" yaml:"min_rotation_interval"`

	// VerifyIPChange enables the best-effort external IP comparison
	// after rotation. A non-change is logged, not a failure.
	VerifyIPChange bool `json:"verify_ip_change" yaml:"verify_ip_change"`

	// MaxRotationFailures is the consecutive connect-failure budget;
	// once reached, rotation is disabled for the rest of the run.
	MaxRotationFailures int `json:"max_rotation_failures" yaml:"max_rotation_failures"`

	// RotateEveryN triggers a proactive rotation after every N
	// completed papers in a rotation-eligible phase.
	RotateEveryN int `json:"rotate_every_n_papers" yaml:"rotate_every_n_papers"`
}

// BrowserConfig holds settings for the headless-browser fallback used
// on JavaScript-challenge domains.
type BrowserConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// LedgerConfig holds settings for the SQLite attempt-history ledger.
type LedgerConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// Config groups all stage configurations for the pipeline.
type Config struct {
	// DatasetPath is the source JSON with the papers array.
	DatasetPath string `json:"dataset_path" yaml:"dataset_path"`

	// ManifestPath is the durable acquisition ledger.
	ManifestPath string `json:"manifest_path" yaml:"manifest_path"`

	Download        DownloadConfig        `json:"download" yaml:"download"`
	Unpaywall       UnpaywallConfig       `json:"unpaywall" yaml:"unpaywall"`
	Scholar         ScholarConfig         `json:"scholar" yaml:"scholar"`
	CORE            COREConfig            `json:"core" yaml:"core"`
	EuropePMC       EuropePMCConfig       `json:"europepmc" yaml:"europepmc"`
	Arxiv           ArxivConfig           `json:"arxiv" yaml:"arxiv"`
	Crossref        CrossrefConfig        `json:"crossref" yaml:"crossref"`
	Proxy           ProxyConfig           `json:"proxy" yaml:"proxy"`
	SciHub          SciHubConfig          `json:"scihub" yaml:"scihub"`
	SemanticScholar SemanticScholarConfig `json:"s2_api" yaml:"s2_api"`
	VPN             VPNConfig             `json:"vpn" yaml:"vpn"`
	Browser         BrowserConfig         `json:"browser" yaml:"browser"`
	Ledger          LedgerConfig          `json:"ledger" yaml:"ledger"`
}
