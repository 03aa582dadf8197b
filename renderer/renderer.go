// Package renderer turns plans and projections into markdown reports.
//
// Reports are text/template files embedded in the package. A report is a
// main template including partials, each partial is tested against a golden
// file in testdata.
package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed *.md
var templates embed.FS

// RenderSummary renders the plan summary: allocation and goals.
func RenderSummary(s *Summary) string {
	partials := map[string]string{
		"summary_title":      "summary_title.md",
		"summary_allocation": "summary_allocation.md",
		"summary_goals":      "summary_goals.md",
	}
	return renderTemplate("summary", "summary.md", partials, s)
}

// RenderProjection renders the month by month projection table.
func RenderProjection(p *ProjectionTable) string {
	partials := map[string]string{
		"projection_title": "projection_title.md",
		"projection_table": "projection_table.md",
	}
	return renderTemplate("projection", "projection.md", partials, p)
}

// RenderFunds renders the per-fund table.
func RenderFunds(f *Funds) string {
	return renderTemplate("funds", "funds.md", nil, f)
}

// RenderReport renders the complete report of a plan: summary, projection
// and funds.
func RenderReport(s *Summary, p *ProjectionTable, f *Funds) string {
	return strings.Join([]string{RenderSummary(s), RenderProjection(p), RenderFunds(f)}, "\n")
}

// ToHTML converts a markdown report to HTML, with GitHub flavored tables.
func ToHTML(md string) (string, error) {
	var buf bytes.Buffer
	conv := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := conv.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("could not convert markdown to HTML: %w", err)
	}
	return buf.String(), nil
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			content, err = fs.ReadFile(templates, file)
			if err != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, err)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
