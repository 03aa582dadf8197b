package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"text/template"

	"github.com/etnz/forecast"
	"github.com/etnz/forecast/renderer"
	"github.com/google/subcommands"
)

// reportTask is one published file, it is also the data of the front matter
// template.
type reportTask struct {
	Plan   string
	Report string // summary, funds or projection
	Year   int    // calendar year of a projection report, 0 otherwise
	From   string // label of the first month covered
	To     string // label of the last month covered

	from, to int // months covered, as projection indexes
}

// Identifier is the file name of the report, without extension.
func (t reportTask) Identifier() string {
	if t.Year == 0 {
		return t.Plan
	}
	return strconv.Itoa(t.Year)
}

type publishCmd struct {
	outputDir      string
	frontMatterTpl string
}

func (*publishCmd) Name() string { return "publish" }

func (*publishCmd) Synopsis() string { return "generates the reports of the plan as a tree of markdown files" }

func (*publishCmd) Usage() string {
	return `fcs publish [-o <dir>] [-frontmatter <file>]

  Generates the summary and funds reports of the plan, and one projection
  report per calendar year covered by the projection, and saves them to a
  structured directory tree:

    <dir>/summary/<plan>.md
    <dir>/funds/<plan>.md
    <dir>/projection/<plan>/<year>.md

  The front matter template receives .Plan, .Report, .Year, .From, .To
  and .Identifier.
`
}

func (c *publishCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputDir, "o", "reports", "Root directory for the generated reports")
	f.StringVar(&c.frontMatterTpl, "frontmatter", "", "Path to a Go template file for the report front matter")
}

func (c *publishCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var frontMatterTpl *template.Template
	if c.frontMatterTpl != "" {
		var err error
		frontMatterTpl, err = template.ParseFiles(c.frontMatterTpl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to parse front matter template: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		plan, proj := s.planner.Snapshot()
		tasks := generateTasks(s.cfg.Plan, proj)

		for _, task := range tasks {
			var md string
			switch task.Report {
			case "summary":
				md = renderer.RenderSummary(renderer.NewSummary(task.Plan, plan, proj))
			case "funds":
				md = renderer.RenderFunds(renderer.NewFunds(task.Plan, plan, proj))
			case "projection":
				md = renderer.RenderProjection(renderer.NewProjectionRange(task.Plan, proj, task.from, task.to, 1))
			}

			if frontMatterTpl != nil {
				fm, err := renderFrontMatter(frontMatterTpl, task)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to render front matter for %s report %s: %v\n", task.Report, task.Identifier(), err)
					continue
				}
				md = fm + "\n" + md
			}

			fullPath := filepath.Join(c.outputDir, reportPath(task))
			if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
				fmt.Fprintf(os.Stderr, "failed to create output directory for file %s: %v\n", fullPath, err)
				return subcommands.ExitFailure
			}
			if err := os.WriteFile(fullPath, []byte(md), 0644); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write file %s: %v\n", fullPath, err)
				return subcommands.ExitFailure
			}
			s.log.WithField("file", fullPath).Infof("Generated %s report %s", task.Report, task.Identifier())
		}
		return subcommands.ExitSuccess
	})
}

// generateTasks lists the reports of a plan: summary, funds and one
// projection per calendar year.
func generateTasks(name string, proj *forecast.Projection) []reportTask {
	if len(proj.Points) == 0 {
		return nil
	}
	tasks := []reportTask{
		{Plan: name, Report: "summary", From: proj.Points[0].Label, To: proj.Last().Label, to: len(proj.Points)},
		{Plan: name, Report: "funds", From: proj.Points[0].Label, To: proj.Last().Label, to: len(proj.Points)},
	}
	from := 0
	for i := range proj.Points {
		year := proj.Start.AddMonths(i).Year()
		if i+1 < len(proj.Points) && proj.Start.AddMonths(i+1).Year() == year {
			continue
		}
		tasks = append(tasks, reportTask{
			Plan:   name,
			Report: "projection",
			Year:   year,
			From:   proj.Points[from].Label,
			To:     proj.Points[i].Label,
			from:   from,
			to:     i + 1,
		})
		from = i + 1
	}
	return tasks
}

func reportPath(t reportTask) string {
	if t.Year == 0 {
		return path.Join(t.Report, t.Identifier()+".md")
	}
	return path.Join(t.Report, t.Plan, t.Identifier()+".md")
}

func renderFrontMatter(tpl *template.Template, task reportTask) (string, error) {
	var fmBuffer bytes.Buffer
	if err := tpl.Execute(&fmBuffer, task); err != nil {
		return "", err
	}
	return fmBuffer.String(), nil
}
