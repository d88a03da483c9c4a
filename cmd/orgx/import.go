package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/orgdoc/internal/interp"
)

func newImportCmd() *cobra.Command {
	var asJSON bool
	var title, outFile string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Convert a foreign document into outline markup",
		Long: `Convert Markdown, HTML, Word, PDF, CSV or plain text into outline markup.

Examples:
  orgx import README.md > readme.org
  orgx import --json report.docx > report.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if title != "" {
				delete(doc.Keywords, "TITLE")
				delete(doc.KeywordLists, "TITLE")
				doc.SetKeyword("TITLE", title)
			}

			var data []byte
			if asJSON {
				if data, err = json.MarshalIndent(doc, "", "  "); err != nil {
					return fmt.Errorf("encode tree: %w", err)
				}
				data = append(data, '\n')
			} else {
				data = []byte(interp.Document(doc, interp.Options{PreserveTimestamps: true}))
			}

			if outFile == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(outFile, data, 0o644)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the JSON document tree instead of markup")
	cmd.Flags().StringVar(&title, "title", "", "Override the document title")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Output file (default: stdout)")
	return cmd
}
