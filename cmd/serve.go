package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/forecast/server"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the plan over a JSON HTTP API" }
func (*serveCmd) Usage() string {
	return `fcs serve [-addr <host:port>]

  Serves the plan over HTTP until interrupted. Every change is saved to the
  store. The projection is recomputed on the configured rollover schedule so
  that month labels follow the calendar.

  Routes:
    GET    /plan                 the plan document
    PUT    /plan                 replace the plan
    PATCH  /plan/income          {"monthlyIncome": 150000}
    PATCH  /plan/fixed           {"rentEmi": ..., "living": ...}
    PATCH  /plan/goals           {"emergencyTarget": ..., ...}
    PATCH  /plan/assumptions     {"portfolioCAGR": 12, "efReturn": 6, "planMonths": 24}
    PATCH  /plan/portfolio       {"currentValue": ...}
    POST   /plan/funds           {"name": ..., "monthlySIP": ...}
    PATCH  /plan/funds/{id}      {"monthlySIP": ...}
    DELETE /plan/funds/{id}
    POST   /plan/reset
    GET    /projection           the projection document
    GET    /projection.csv
    GET    /summary
    GET    /charts/{networth|ef|allocation}.{png|svg}
    GET    /query?path=<jsonpath>
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Address to listen on. Defaults to the configured host and port.")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		addr := c.addr
		if addr == "" {
			addr = s.cfg.Server.Addr()
		}

		srv := server.New(s.planner, s.store, s.cfg.Plan, s.log)
		stop, err := srv.StartRollover(s.cfg.Server.Rollover)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		defer stop()

		if err := srv.ListenAndServe(ctx, addr); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}
