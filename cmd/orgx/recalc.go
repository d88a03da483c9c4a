package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/orgdoc/internal/tblfm"
)

func newRecalcCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "recalc FILE",
		Short: "Recalculate every table formula in an outline file",
		Long: `Recalculate every table carrying a #+TBLFM: line.

The result goes to stdout unless --write rewrites FILE in place. A summary
of updated fields is printed to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecalc(cmd, args[0], write)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Rewrite the file in place")
	return cmd
}

func runRecalc(cmd *cobra.Command, path string, write bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	out, tables := tblfm.RecalcDocument(string(data))
	if write {
		if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	} else if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
		return err
	}

	printRecalcSummary(cmd, tables)
	return nil
}

func printRecalcSummary(cmd *cobra.Command, tables []tblfm.TableResult) {
	w := cmd.ErrOrStderr()
	st := newStyles(w)
	if len(tables) == 0 {
		fmt.Fprintln(w, st.Dim.Render("no tables with formulas"))
		return
	}
	for _, t := range tables {
		label := fmt.Sprintf("table at line %d", t.StartLine+1)
		if t.Name != "" {
			label = fmt.Sprintf("table %s", t.Name)
		}
		var failed []string
		for key, v := range t.Updates {
			if strings.HasPrefix(v, "#ERROR") {
				failed = append(failed, key)
			}
		}
		sort.Strings(failed)
		line := fmt.Sprintf("%s %s", st.Title.Render(label), st.Success.Render(fmt.Sprintf("%d fields", len(t.Updates))))
		if len(failed) > 0 {
			line += " " + st.Error.Render(fmt.Sprintf("%d errors (%s)", len(failed), strings.Join(failed, " ")))
		}
		fmt.Fprintln(w, line)
	}
}
