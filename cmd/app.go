// Package cmd implements the CLI application to manage a savings plan.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/forecast"
	"github.com/etnz/forecast/config"
	"github.com/etnz/forecast/store"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// Commands lists the subcommands by group.
var Commands = []struct {
	Group string
	Cmd   subcommands.Command
}{
	{"reports", &showCmd{}},
	{"reports", &projectCmd{}},
	{"reports", &fundsCmd{}},
	{"reports", &queryCmd{}},
	{"reports", &exportCmd{}},
	{"reports", &chartCmd{}},
	{"reports", &publishCmd{}},

	{"plan", &setIncomeCmd{}},
	{"plan", &setFixedCmd{}},
	{"plan", &setGoalsCmd{}},
	{"plan", &setAssumptionsCmd{}},
	{"plan", &setValueCmd{}},
	{"plan", &addFundCmd{}},
	{"plan", &removeFundCmd{}},
	{"plan", &setSIPCmd{}},
	{"plan", &resetCmd{}},
	{"plan", &plansCmd{}},

	{"services", &serveCmd{}},
	{"services", &assistCmd{}},

	{"help", &topicCmd{}},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, e := range Commands {
		c.Register(e.Cmd, e.Group)
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile = flag.String("config", "", "Path to a TOML configuration file, read after the default ones.")
	planName   = flag.String("plan", "", "Name of the plan to work on. Overrides the configuration.")
	Verbose    = flag.Bool("v", false, "Enable verbose logging.")
)

// EnvTestingNow fixes the current date (YYYY-MM-DD) for reproducible outputs.
const EnvTestingNow = "FORECAST_TESTING_NOW"

// now returns the current time, or the one set by EnvTestingNow.
func now() time.Time {
	if s := os.Getenv(EnvTestingNow); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			return t
		}
	}
	return time.Now()
}

// loadConfig reads the configuration files and applies the global flags.
func loadConfig() (*config.Config, error) {
	paths := config.DefaultPaths()
	if *configFile != "" {
		if _, err := os.Stat(*configFile); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
		paths = append(paths, *configFile)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, err
	}
	if *planName != "" {
		cfg.Plan = *planName
	}
	return cfg, nil
}

// session is the plan a command works on.
type session struct {
	cfg     *config.Config
	log     *logrus.Logger
	store   store.Store
	planner *forecast.Planner
}

// openSession loads the configured plan, or a default one if it is not yet
// stored.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := cfg.Logging.Logger(os.Stderr)
	if *Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if err := store.ValidateName(cfg.Plan); err != nil {
		return nil, err
	}

	s, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}
	plan, err := store.LoadOrDefault(ctx, s, cfg.Plan, cfg.Currency)
	if err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("could not load plan %q: %w", cfg.Plan, err)
	}
	log.WithFields(logrus.Fields{"plan": cfg.Plan, "driver": cfg.Store.Driver}).Debug("plan loaded")

	return &session{
		cfg:     cfg,
		log:     log,
		store:   s,
		planner: forecast.NewPlanner(plan, forecast.WithClock(now), forecast.WithLogger(log)),
	}, nil
}

// save validates and stores the current plan.
func (s *session) save(ctx context.Context) error {
	plan := s.planner.Plan()
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}
	if err := s.store.Save(ctx, s.cfg.Plan, plan); err != nil {
		return fmt.Errorf("could not save plan %q: %w", s.cfg.Plan, err)
	}
	return nil
}

// saved saves the plan and reports the outcome of a mutating command.
func (s *session) saved(ctx context.Context, what string) subcommands.ExitStatus {
	if err := s.save(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	last := s.planner.Projection().Last()
	fmt.Printf("%s. Net worth in %s: %s\n", what, last.Label, last.NetWorth.Whole())
	return subcommands.ExitSuccess
}

func (s *session) close(ctx context.Context) {
	if err := s.store.Close(ctx); err != nil {
		s.log.WithError(err).Warn("could not close the store")
	}
}

// withSession runs f on an open session, reporting errors on stderr.
func withSession(ctx context.Context, f func(s *session) subcommands.ExitStatus) subcommands.ExitStatus {
	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer s.close(ctx)
	return f(s)
}

// parseAmount parses an optional amount flag, nil if empty.
func parseAmount(name, value, currency string) (*forecast.Money, error) {
	if value == "" {
		return nil, nil
	}
	m, err := forecast.ParseMoney(value, currency)
	if err != nil {
		return nil, fmt.Errorf("-%s: %w", name, err)
	}
	return &m, nil
}
