package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/orgdoc/internal/export"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List export formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			st := newStyles(w)
			for _, name := range export.Formats() {
				b, err := export.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%-8s %-6s %s\n", st.Key.Render(b.Name()), b.Extension(), st.Dim.Render(b.ContentType()))
			}
			return nil
		},
	}
}
