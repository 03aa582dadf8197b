package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/forecast"
	"github.com/etnz/forecast/renderer"
	"github.com/google/subcommands"
)

// showCmd holds the flags for the 'show' subcommand.
type showCmd struct {
	every int
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "display the plan summary and its projection" }
func (*showCmd) Usage() string {
	return `fcs show [-every <n>]

  Displays the monthly allocation of the plan, the emergency fund progress,
  the final net worth, and the projection table, one row every n months.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.every, "every", 12, "Show one row every n months. The last month is always shown.")
}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		plan, proj := s.planner.Snapshot()
		printMarkdown(renderer.RenderSummary(renderer.NewSummary(s.cfg.Plan, plan, proj)) + "\n" +
			renderer.RenderProjection(renderer.NewProjectionTable(s.cfg.Plan, proj, c.every)))
		return subcommands.ExitSuccess
	})
}

// projectCmd holds the flags for the 'project' subcommand.
type projectCmd struct {
	every int
}

func (*projectCmd) Name() string     { return "project" }
func (*projectCmd) Synopsis() string { return "display the month by month projection" }
func (*projectCmd) Usage() string {
	return `fcs project [-every <n>]

  Displays the projection table: emergency fund, short-term bucket,
  portfolio and net worth, month by month. The month the emergency fund
  reaches its target is marked.
`
}

func (c *projectCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.every, "every", 1, "Show one row every n months. The last month is always shown.")
}

func (c *projectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		printMarkdown(renderer.RenderProjection(renderer.NewProjectionTable(s.cfg.Plan, s.planner.Projection(), c.every)))
		return subcommands.ExitSuccess
	})
}

type fundsCmd struct{}

func (*fundsCmd) Name() string     { return "funds" }
func (*fundsCmd) Synopsis() string { return "display the funds of the portfolio" }
func (*fundsCmd) Usage() string {
	return `fcs funds

  Displays every fund with its id, its monthly SIP, its share of the
  portfolio contributions and its projected final value.
`
}

func (c *fundsCmd) SetFlags(f *flag.FlagSet) {}

func (c *fundsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		plan, proj := s.planner.Snapshot()
		printMarkdown(renderer.RenderFunds(renderer.NewFunds(s.cfg.Plan, plan, proj)))
		return subcommands.ExitSuccess
	})
}

type queryCmd struct{}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "extract values from the projection with JSONPath" }
func (*queryCmd) Usage() string {
	return `fcs query <jsonpath>

  Evaluates a JSONPath expression against the projection document and
  prints the result as JSON. For instance:

    fcs query '$.points[23].netWorth'
    fcs query '$.perFundValues[*].name'
    fcs query '$.efCompletionMonthIndex'
`
}

func (c *queryCmd) SetFlags(f *flag.FlagSet) {}

func (c *queryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: query takes exactly one JSONPath expression")
		return subcommands.ExitUsageError
	}
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		v, err := forecast.Query(s.planner.Projection(), f.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		out, err := json.Marshal(v)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		fmt.Println(string(out))
		return subcommands.ExitSuccess
	})
}
