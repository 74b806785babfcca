package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Renderer transforms markdown before it is written out.
type Renderer func(string) (string, error)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (Renderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// Plain returns markdown unchanged.
func Plain(markdown string) (string, error) {
	return markdown, nil
}

// ForFile picks glamour for terminals and Plain for pipes and files.
func ForFile(f *os.File) Renderer {
	if !IsTerminal(f) {
		return Plain
	}
	r, err := NewRenderer()
	if err != nil {
		return Plain
	}
	return r
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
