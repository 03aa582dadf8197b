package cmd

import (
	"flag"

	"github.com/etnz/forecast/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors are the completions of flag values known in advance.
var flagPredictors = map[string]complete.Predictor{
	"format": predict.Set{"csv", "xlsx", "json", "md", "html", "png", "svg"},
	"kind":   predict.Set{"networth", "ef", "allocation"},
	"config": predict.Files("*.toml"),
	"o":      predict.Files("*"),
}

// Completion returns the shell completion of the commander's commands,
// with their flags. Global flags are read from flag.CommandLine.
func Completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flags(flag.CommandLine),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		sub := &complete.Command{Flags: flags(fs)}
		if cmd.Name() == "topic" {
			sub.Args = complete.PredictFunc(topics)
		}
		root.Sub[cmd.Name()] = sub
	})
	return root
}

func flags(fs *flag.FlagSet) map[string]complete.Predictor {
	m := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := flagPredictors[f.Name]; ok {
			m[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			m[f.Name] = predict.Nothing
			return
		}
		m[f.Name] = predict.Something
	})
	return m
}

func topics(prefix string) []string {
	index, err := docs.Index()
	if err != nil {
		return nil
	}
	names := []string{docs.Readme}
	for _, t := range index {
		names = append(names, t.Name)
	}
	return names
}
