// Copyright Awele Larsen, 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/awlarsen/paperfetch/internal/manifest"
)

var exportCmd = &cobra.Command{
	Use:   "export-remaining",
	Short: "Export undownloaded papers to CSV for manual follow-up",
	Long: `Export-remaining writes a CSV of every paper still pending, failed, or
not found, including its last attempted URL and a suggested Google
Scholar search link.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("output", "data/manual_downloads.csv", "CSV output path")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	man, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}
	if man.Len() == 0 {
		fmt.Println("no manifest found, run 'paperfetch download' first")
		return nil
	}

	output, _ := cmd.Flags().GetString("output")
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer f.Close()

	n, err := man.ExportRemaining(f)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("all papers have been downloaded")
		return nil
	}

	fmt.Printf("exported %d remaining papers to %s\n", n, output)
	return nil
}
