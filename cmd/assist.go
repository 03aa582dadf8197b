package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/forecast/agent"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// assistCmd is the subcommand for the AI advisor.
type assistCmd struct{}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "chat with the AI advisor about the plan" }
func (*assistCmd) Usage() string {
	return `fcs assist [<question>...]

  Starts an interactive session with the AI advisor. It reads the plan, runs
  what-if projections and searches for rates and returns. The arguments are
  sent as the first question. Type 'bye' to exit.

  Requires GEMINI_API_KEY (or GOOGLE_API_KEY) in the environment.
`
}

func (*assistCmd) SetFlags(_ *flag.FlagSet) {}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		client, err := genai.NewClient(ctx, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
			return subcommands.ExitFailure
		}

		model := s.cfg.Assistant.Model
		planner := agent.NewPlanner(model, s.planner)
		economist := agent.NewEconomist(model)
		planner.Log, economist.Log = s.log, s.log

		a := agent.New(os.Stdout, os.Stdin, model, planner, economist)
		a.Facilitator.Log = s.log
		a.Render = renderMarkdown

		if err := a.Run(ctx, client, strings.Join(f.Args(), " ")); err != nil {
			fmt.Fprintln(os.Stderr, "Agent failed:", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}
