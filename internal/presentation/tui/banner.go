package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the flowstory banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _                   _                   ", "#818cf8"},
		{"  / _| | _____      _____| |_ ___  _ __ _   _ ", "#a78bfa"},
		{" | |_| |/ _ \\ \\ /\\ / / __| __/ _ \\| '__| | | |", "#c084fc"},
		{" |  _| | (_) \\ V  V /\\__ \\ || (_) | |  | |_| |", "#e879f9"},
		{" |_| |_|\\___/ \\_/\\_/ |___/\\__\\___/|_|   \\__, |", "#f472b6"},
		{"                                        |___/ ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String(" v"+v).Faint())
	}
	fmt.Fprintln(w)
}
