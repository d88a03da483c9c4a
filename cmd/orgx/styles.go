package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	Title   lipgloss.Style
	Key     lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
}

// newStyles returns colored styles for terminals and plain ones otherwise.
func newStyles(w io.Writer) styles {
	if !isTTY(w) {
		plain := lipgloss.NewStyle()
		return styles{Title: plain, Key: plain, Success: plain, Error: plain, Dim: plain}
	}
	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")), // Blue
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")),            // Cyan
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),            // Green
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),  // Red
		Dim:     lipgloss.NewStyle().Faint(true),
	}
}

func isTTY(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
