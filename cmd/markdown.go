package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// renderMarkdown formats md for the terminal, md is returned unchanged if
// it cannot be rendered.
func renderMarkdown(md string) string {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		return md
	}
	return out
}

// printMarkdown prints md to the terminal.
func printMarkdown(md string) { fmt.Print(renderMarkdown(md)) }
