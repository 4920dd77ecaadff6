// Copyright Awele Larsen, 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: unpaywall-email, core-api-key, crossref-mailto, s2-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/awlarsen/paperfetch/pkg/types"
)

// Key file names recognized by Apply.
const (
	KeyUnpaywallEmail = "unpaywall-email"
	KeyCOREAPIKey     = "core-api-key"
	KeyCrossrefMailto = "crossref-mailto"
	KeyS2APIKey       = "s2-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply overlays loaded secrets onto a Config. Values already set in
// the config (from flags or the config file) win over secret files.
func Apply(cfg *types.Config, secrets map[string]string) {
	if cfg.Unpaywall.Email == "" {
		cfg.Unpaywall.Email = secrets[KeyUnpaywallEmail]
	}
	if cfg.CORE.APIKey == "" {
		cfg.CORE.APIKey = secrets[KeyCOREAPIKey]
	}
	if cfg.Crossref.Mailto == "" {
		cfg.Crossref.Mailto = secrets[KeyCrossrefMailto]
	}
	if cfg.SemanticScholar.APIKey == "" {
		cfg.SemanticScholar.APIKey = secrets[KeyS2APIKey]
	}
}
