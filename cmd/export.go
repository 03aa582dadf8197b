package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/forecast"
	"github.com/etnz/forecast/chart"
	"github.com/etnz/forecast/renderer"
	"github.com/google/subcommands"
)

type exportCmd struct {
	format string
	output string
	every  int
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the projection as csv, xlsx, json, markdown or html" }
func (*exportCmd) Usage() string {
	return `fcs export [-format csv|xlsx|json|md|html] [-o <file>] [-every <n>]

  Exports the plan and its projection. csv starts with the plan's key
  figures followed by the projection table, xlsx puts them on a Summary and
  a Projections sheet, json is the projection document used by 'fcs query',
  md and html are the full report.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "csv", "Export format: csv, xlsx, json, md or html.")
	f.StringVar(&c.output, "o", "", "Output file. Defaults to the standard output.")
	f.IntVar(&c.every, "every", 1, "For md and html, one projection row every n months.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch c.format {
	case "csv", "xlsx", "json", "md", "html":
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q, want csv, xlsx, json, md or html\n", c.format)
		return subcommands.ExitUsageError
	}

	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		var buf bytes.Buffer
		if err := c.export(&buf, s); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		if err := writeOutput(c.output, buf.Bytes()); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}

func (c *exportCmd) export(w io.Writer, s *session) error {
	plan, proj := s.planner.Snapshot()
	switch c.format {
	case "csv":
		return forecast.WriteCSV(w, plan, proj)
	case "xlsx":
		return forecast.WriteXLSX(w, plan, proj)
	case "json":
		return forecast.EncodeProjection(w, proj)
	}

	md := renderer.RenderReport(
		renderer.NewSummary(s.cfg.Plan, plan, proj),
		renderer.NewProjectionTable(s.cfg.Plan, proj, c.every),
		renderer.NewFunds(s.cfg.Plan, plan, proj),
	)
	if c.format == "html" {
		html, err := renderer.ToHTML(md)
		if err != nil {
			return err
		}
		md = html
	}
	_, err := io.WriteString(w, md)
	return err
}

// writeOutput writes data to the file name, or to stdout if name is empty.
func writeOutput(name string, data []byte) error {
	if name == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("could not write %q: %w", name, err)
	}
	fmt.Fprintf(os.Stderr, "Written %s\n", name)
	return nil
}

type chartCmd struct {
	kind   string
	format string
	output string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "draw the projection as an image" }
func (*chartCmd) Usage() string {
	return `fcs chart [-kind networth|ef|allocation] [-format png|svg] [-o <file>]

  Draws a chart of the projection:
    networth    the net worth and its three buckets, month by month
    ef          the emergency fund balance against its target
    allocation  the first month's split of the income

  The image is written to <kind>.<format> unless -o is given.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "networth", "Chart to draw: networth, ef or allocation.")
	f.StringVar(&c.format, "format", "png", "Image format: png or svg.")
	f.StringVar(&c.output, "o", "", "Output file.")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := chart.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	output := c.output
	if output == "" {
		output = c.kind + "." + string(format)
	}

	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		plan, proj := s.planner.Snapshot()
		var data []byte
		switch c.kind {
		case "networth":
			data, err = chart.NetWorth(proj, format)
		case "ef":
			data, err = chart.EmergencyFund(proj, plan.Goals.EmergencyTarget, format)
		case "allocation":
			data, err = chart.Allocation(forecast.NewAllocation(plan, proj), format)
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown chart %q, want networth, ef or allocation\n", c.kind)
			return subcommands.ExitUsageError
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		if err := writeOutput(output, data); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}
