// Copyright Awele Larsen, 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awlarsen/paperfetch/pkg/types"
)

func writeSecret(t *testing.T, dir, name, value string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value), 0o600))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, KeyUnpaywallEmail, "dev@example.org\n")
	writeSecret(t, dir, KeyCOREAPIKey, "  core-secret  ")
	writeSecret(t, dir, "empty-key", "   ")
	writeSecret(t, dir, ".hidden", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	secrets, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		KeyUnpaywallEmail: "dev@example.org",
		KeyCOREAPIKey:     "core-secret",
	}, secrets)
}

func TestLoadMissingDir(t *testing.T) {
	secrets, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, secrets)
}

func TestApply(t *testing.T) {
	secrets := map[string]string{
		KeyUnpaywallEmail: "secret@example.org",
		KeyCOREAPIKey:     "core-secret",
		KeyCrossrefMailto: "crossref@example.org",
		KeyS2APIKey:       "s2-secret",
	}

	var cfg types.Config
	Apply(&cfg, secrets)
	assert.Equal(t, "secret@example.org", cfg.Unpaywall.Email)
	assert.Equal(t, "core-secret", cfg.CORE.APIKey)
	assert.Equal(t, "crossref@example.org", cfg.Crossref.Mailto)
	assert.Equal(t, "s2-secret", cfg.SemanticScholar.APIKey)
}

func TestApplyConfigWins(t *testing.T) {
	var cfg types.Config
	cfg.Unpaywall.Email = "flag@example.org"
	Apply(&cfg, map[string]string{KeyUnpaywallEmail: "secret@example.org"})
	assert.Equal(t, "flag@example.org", cfg.Unpaywall.Email)
}
