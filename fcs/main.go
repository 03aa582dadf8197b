// Command fcs plans savings: an emergency fund, a short-term bucket and a
// portfolio of SIPs, projected month by month.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/etnz/forecast/cmd"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "fcs")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	// Answers shell completion requests and exits, does nothing otherwise.
	cmd.Completion(commander).Complete("fcs")

	flag.Parse()

	if flag.NArg() > 0 && !known(commander, flag.Arg(0)) {
		if ok, code := cmd.RunExtension(flag.Arg(0), flag.Args()[1:]); ok {
			os.Exit(code)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

func known(c *subcommands.Commander, name string) (found bool) {
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		found = found || cmd.Name() == name
	})
	return found
}
