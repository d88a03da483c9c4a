// Package main provides the entry point for the orgx CLI.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/dgallion1/orgdoc/internal/export/htmlexp"
	_ "github.com/dgallion1/orgdoc/internal/export/latexexp"
	_ "github.com/dgallion1/orgdoc/internal/export/mdexp"
	_ "github.com/dgallion1/orgdoc/internal/export/wordexp"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if err := fang.Execute(context.Background(), newRootCmd(), fang.WithVersion(version)); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orgx",
		Short: "Export outline documents and recalculate their tables",
		Long: `orgx converts outline document trees to HTML, LaTeX, Word and Markdown,
recalculates spreadsheet tables in outline markup, and imports foreign
documents into outline markup.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Environment variables already set take precedence over .env values.
	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		_ = godotenv.Load()
		return nil
	}

	cmd.AddCommand(newExportCmd(), newRecalcCmd(), newImportCmd(), newFormatsCmd())
	return cmd
}
