package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/orgdoc/internal/export"
	"github.com/dgallion1/orgdoc/internal/orgtree"
	"github.com/dgallion1/orgdoc/internal/parser"
)

func newExportCmd() *cobra.Command {
	var to, optionsFile, outFile string
	var bodyOnly bool

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export a document tree to another format",
		Long: `Export a document to HTML, LaTeX, Word or Markdown.

FILE is a JSON document tree, or any importable document (.md, .html,
.docx, .pdf, .csv, .txt), which is imported first.

Examples:
  orgx export --to html notes.json > notes.html
  orgx export --to docx --out report.docx report.json
  orgx export --to latex --options export.yaml --body-only notes.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], to, optionsFile, outFile, bodyOnly)
		},
	}

	cmd.Flags().StringVarP(&to, "to", "t", "html", "Target format ("+strings.Join(export.Formats(), ", ")+")")
	cmd.Flags().StringVar(&optionsFile, "options", "", "YAML file with export option overrides")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&bodyOnly, "body-only", false, "Omit the document wrapper")
	return cmd
}

func runExport(cmd *cobra.Command, path, to, optionsFile, outFile string, bodyOnly bool) error {
	backend, err := export.Lookup(to)
	if err != nil {
		return err
	}

	var ov export.Overrides
	if optionsFile != "" {
		if ov, err = loadOverrides(optionsFile); err != nil {
			return err
		}
	}
	if bodyOnly {
		ov.BodyOnly = &bodyOnly
	}

	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	data, err := backend.ExportDocument(doc, ov)
	if err != nil {
		return fmt.Errorf("export %s: %w", backend.Name(), err)
	}

	if outFile == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outFile, err)
	}
	st := newStyles(cmd.ErrOrStderr())
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s %s %s\n",
		st.Success.Render("exported"),
		filepath.Base(path),
		st.Dim.Render("->"),
		st.Key.Render(fmt.Sprintf("%s (%s, %d bytes)", outFile, backend.Name(), len(data))))
	return nil
}

// loadOverrides reads export option overrides from a YAML file.
func loadOverrides(path string) (export.Overrides, error) {
	var ov export.Overrides
	data, err := os.ReadFile(path)
	if err != nil {
		return ov, fmt.Errorf("read options: %w", err)
	}
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return ov, fmt.Errorf("parse options %s: %w", path, err)
	}
	return ov, nil
}

// readDocument loads a JSON tree or imports a foreign document.
func readDocument(path string) (*orgtree.Document, error) {
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = true
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := p.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return doc, nil
}
