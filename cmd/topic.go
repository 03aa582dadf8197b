package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/forecast/docs"
	"github.com/google/subcommands"
)

type topicCmd struct {
	list bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `fcs topic [-list] [<topic>...]

Show documentation for the given topics, '*' for all of them. Without
argument, show the readme. With -list, print the topic index only.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "print the topic names and summaries")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.list {
		index, err := docs.Index()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading topic index: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Print(topicIndex(index))
		return subcommands.ExitSuccess
	}

	names := f.Args()
	if len(names) == 0 {
		names = []string{docs.Readme}
	}
	doc, err := docs.Pages(names...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading doc: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(doc)
	return subcommands.ExitSuccess
}

// topicIndex formats the index as aligned "name  summary" lines.
func topicIndex(index []docs.Topic) string {
	width := 0
	for _, t := range index {
		width = max(width, len(t.Name))
	}
	var b strings.Builder
	for _, t := range index {
		fmt.Fprintf(&b, "%-*s  %s\n", width, t.Name, t.Summary)
	}
	return b.String()
}
