// Package docs embeds the fcs documentation pages.
//
// readme.md is the entry page. Its bullet list of "name: summary" items is
// the topic index: every other page must appear there.
package docs

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

//go:embed *.md
var pages embed.FS

// Readme is the name of the entry page.
const Readme = "readme"

// Topic is one entry of the readme index.
type Topic struct {
	Name    string // page name, without the .md extension
	Summary string // one line description
}

// Index returns the topics listed in the readme, in order.
func Index() ([]Topic, error) {
	src, err := pages.ReadFile(Readme + ".md")
	if err != nil {
		return nil, err
	}
	return parseIndex(src), nil
}

// parseIndex extracts the "name: summary" list items of a markdown page.
func parseIndex(src []byte) []Topic {
	root := goldmark.DefaultParser().Parse(text.NewReader(src))
	var topics []Topic
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindListItem {
			return ast.WalkContinue, nil
		}
		name, summary, ok := strings.Cut(plainText(n.FirstChild(), src), ":")
		if ok && name != "" && !strings.ContainsAny(name, " \t") {
			topics = append(topics, Topic{Name: name, Summary: strings.TrimSpace(summary)})
		}
		return ast.WalkSkipChildren, nil
	})
	return topics
}

// plainText concatenates the text segments under n.
func plainText(n ast.Node, src []byte) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// Page returns the markdown of a single page: the readme or an indexed topic.
func Page(name string) (string, error) {
	content, err := pages.ReadFile(name + ".md")
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		return "", fmt.Errorf("unknown topic %q, run 'fcs topic' for the list", name)
	}
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Pages returns the named pages joined together. "*" stands for every
// indexed topic.
func Pages(names ...string) (string, error) {
	var b strings.Builder
	for _, name := range names {
		expanded := []string{name}
		if name == "*" {
			index, err := Index()
			if err != nil {
				return "", err
			}
			expanded = expanded[:0]
			for _, t := range index {
				expanded = append(expanded, t.Name)
			}
		}
		for _, n := range expanded {
			content, err := Page(n)
			if err != nil {
				return "", err
			}
			b.WriteString(content)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
