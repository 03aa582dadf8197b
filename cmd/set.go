package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/etnz/forecast"
	"github.com/google/subcommands"
)

// amountArg parses the single amount argument of a command.
func amountArg(f *flag.FlagSet, currency string) (forecast.Money, error) {
	if f.NArg() != 1 {
		return forecast.Money{}, errors.New("expected exactly one amount")
	}
	return forecast.ParseMoney(f.Arg(0), currency)
}

type setIncomeCmd struct{}

func (*setIncomeCmd) Name() string     { return "set-income" }
func (*setIncomeCmd) Synopsis() string { return "set the monthly income" }
func (*setIncomeCmd) Usage() string {
	return `fcs set-income <amount>

  Sets the monthly take-home income of the plan.
`
}
func (*setIncomeCmd) SetFlags(*flag.FlagSet) {}

func (c *setIncomeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		v, err := amountArg(f, s.planner.Plan().Currency)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		s.planner.UpdateIncome(v)
		return s.saved(ctx, "Income set to "+v.Whole())
	})
}

type setValueCmd struct{}

func (*setValueCmd) Name() string     { return "set-value" }
func (*setValueCmd) Synopsis() string { return "set the current value of the portfolio" }
func (*setValueCmd) Usage() string {
	return `fcs set-value <amount>

  Sets the value of the portfolio today, the starting point of the projection.
`
}
func (*setValueCmd) SetFlags(*flag.FlagSet) {}

func (c *setValueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		v, err := amountArg(f, s.planner.Plan().Currency)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		s.planner.UpdatePortfolioCurrentValue(v)
		return s.saved(ctx, "Portfolio value set to "+v.Whole())
	})
}

type setFixedCmd struct {
	rent, living string
}

func (*setFixedCmd) Name() string     { return "set-fixed" }
func (*setFixedCmd) Synopsis() string { return "set the fixed monthly expenses" }
func (*setFixedCmd) Usage() string {
	return `fcs set-fixed [-rent <amount>] [-living <amount>]

  Sets the fixed monthly expenses. Omitted flags are left unchanged.
`
}

func (c *setFixedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.rent, "rent", "", "Monthly rent or EMI.")
	f.StringVar(&c.living, "living", "", "Monthly living expenses.")
}

func (c *setFixedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		cur := s.planner.Plan().Currency
		var u forecast.FixedUpdate
		var errs []error
		var err error
		u.RentEMI, err = parseAmount("rent", c.rent, cur)
		errs = append(errs, err)
		u.Living, err = parseAmount("living", c.living, cur)
		errs = append(errs, err)
		if err := errors.Join(errs...); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		s.planner.UpdateFixed(u)
		return s.saved(ctx, "Fixed expenses updated")
	})
}

type setGoalsCmd struct {
	target, base, extra, shortTerm, shortTermTarget string
	shortTermMonths                                 int
}

func (*setGoalsCmd) Name() string     { return "set-goals" }
func (*setGoalsCmd) Synopsis() string { return "set the savings goals" }
func (*setGoalsCmd) Usage() string {
	return `fcs set-goals [-target <amount>] [-base <amount>] [-extra <amount>] [-short-term <amount>]
              [-short-term-target <amount>] [-short-term-months <n>]

  Sets the savings goals. Omitted flags are left unchanged.

  The emergency fund receives base+extra every month until it reaches its
  target, then base only: the extra goes to the portfolio.
`
}

func (c *setGoalsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.target, "target", "", "Emergency fund target.")
	f.StringVar(&c.base, "base", "", "Emergency fund base monthly contribution.")
	f.StringVar(&c.extra, "extra", "", "Emergency fund extra monthly contribution.")
	f.StringVar(&c.shortTerm, "short-term", "", "Short-term bucket monthly contribution.")
	f.StringVar(&c.shortTermTarget, "short-term-target", "", "Optional short-term target, 0 to clear.")
	f.IntVar(&c.shortTermMonths, "short-term-months", -1, "Months to reach the short-term target, 0 for the plan horizon.")
}

func (c *setGoalsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		cur := s.planner.Plan().Currency
		var u forecast.GoalsUpdate
		var errs []error
		parse := func(dst **forecast.Money, name, value string) {
			m, err := parseAmount(name, value, cur)
			*dst = m
			errs = append(errs, err)
		}
		parse(&u.EmergencyTarget, "target", c.target)
		parse(&u.EmergencyBase, "base", c.base)
		parse(&u.EmergencyExtra, "extra", c.extra)
		parse(&u.ShortTermMonthly, "short-term", c.shortTerm)
		parse(&u.ShortTermTarget, "short-term-target", c.shortTermTarget)
		if c.shortTermMonths >= 0 {
			u.ShortTermMonths = &c.shortTermMonths
		}
		if err := errors.Join(errs...); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		s.planner.UpdateGoals(u)
		return s.saved(ctx, "Goals updated")
	})
}

type setAssumptionsCmd struct {
	cagr, efReturn string
	months         int
}

func (*setAssumptionsCmd) Name() string     { return "set-assumptions" }
func (*setAssumptionsCmd) Synopsis() string { return "set the growth assumptions and the horizon" }
func (*setAssumptionsCmd) Usage() string {
	return `fcs set-assumptions [-cagr <percent>] [-ef-return <percent>] [-months <n>]

  Sets the expected annual returns, in percent, and the number of months to
  project. Omitted flags are left unchanged.
`
}

func (c *setAssumptionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.cagr, "cagr", "", "Expected annual return of the portfolio, in percent.")
	f.StringVar(&c.efReturn, "ef-return", "", "Expected annual return of the emergency fund, in percent.")
	f.IntVar(&c.months, "months", 0, "Number of months to project.")
}

func parsePercent(name, value string) (*forecast.Percent, error) {
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
	if err != nil {
		return nil, fmt.Errorf("-%s: invalid percent %q", name, value)
	}
	p := forecast.Percent(v)
	return &p, nil
}

func (c *setAssumptionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		var u forecast.AssumptionsUpdate
		var err1, err2 error
		u.PortfolioCAGR, err1 = parsePercent("cagr", c.cagr)
		u.EFReturn, err2 = parsePercent("ef-return", c.efReturn)
		if err := errors.Join(err1, err2); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		if c.months != 0 {
			u.PlanMonths = &c.months
		}
		s.planner.UpdateAssumptions(u)
		return s.saved(ctx, "Assumptions updated")
	})
}

type addFundCmd struct {
	sip string
}

func (*addFundCmd) Name() string     { return "add-fund" }
func (*addFundCmd) Synopsis() string { return "add a fund to the portfolio" }
func (*addFundCmd) Usage() string {
	return `fcs add-fund -sip <amount> <name>

  Adds a fund receiving a monthly SIP. The new fund's id is printed, it is
  used to change or remove the fund.
`
}

func (c *addFundCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sip, "sip", "0", "Monthly SIP of the fund.")
}

func (c *addFundCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := strings.TrimSpace(strings.Join(f.Args(), " "))
	if name == "" {
		fmt.Fprintln(os.Stderr, "Error: the fund needs a name")
		return subcommands.ExitUsageError
	}
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		sip, err := forecast.ParseMoney(c.sip, s.planner.Plan().Currency)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error: -sip:", err)
			return subcommands.ExitUsageError
		}
		fund := s.planner.AddFund(name, sip)
		return s.saved(ctx, fmt.Sprintf("Fund %q added with id %s", fund.Name, fund.ID))
	})
}

type removeFundCmd struct{}

func (*removeFundCmd) Name() string     { return "remove-fund" }
func (*removeFundCmd) Synopsis() string { return "remove a fund from the portfolio" }
func (*removeFundCmd) Usage() string {
	return `fcs remove-fund <id>

  Removes the fund. Use 'fcs funds' to list the fund ids.
`
}
func (*removeFundCmd) SetFlags(*flag.FlagSet) {}

func (c *removeFundCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one fund id")
		return subcommands.ExitUsageError
	}
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		if _, err := s.planner.RemoveFund(f.Arg(0)); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		return s.saved(ctx, "Fund "+f.Arg(0)+" removed")
	})
}

type setSIPCmd struct{}

func (*setSIPCmd) Name() string     { return "set-sip" }
func (*setSIPCmd) Synopsis() string { return "set the monthly SIP of a fund" }
func (*setSIPCmd) Usage() string {
	return `fcs set-sip <id> <amount>

  Sets the monthly SIP of the fund. Use 'fcs funds' to list the fund ids.
`
}
func (*setSIPCmd) SetFlags(*flag.FlagSet) {}

func (c *setSIPCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: expected a fund id and an amount")
		return subcommands.ExitUsageError
	}
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		sip, err := forecast.ParseMoney(f.Arg(1), s.planner.Plan().Currency)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		if _, err := s.planner.UpdateFundSIP(f.Arg(0), sip); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		return s.saved(ctx, "SIP of "+f.Arg(0)+" set to "+sip.Whole())
	})
}

type resetCmd struct{}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "restore the default plan" }
func (*resetCmd) Usage() string {
	return `fcs reset

  Replaces the plan with the default one, keeping its currency.
`
}
func (*resetCmd) SetFlags(*flag.FlagSet) {}

func (c *resetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		s.planner.Reset()
		return s.saved(ctx, "Plan reset")
	})
}

type plansCmd struct{}

func (*plansCmd) Name() string     { return "plans" }
func (*plansCmd) Synopsis() string { return "list the stored plans" }
func (*plansCmd) Usage() string {
	return `fcs plans

  Lists the plans of the store, the current one is marked with a star.
`
}
func (*plansCmd) SetFlags(*flag.FlagSet) {}

func (c *plansCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) subcommands.ExitStatus {
		names, err := s.store.List(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		for _, name := range names {
			mark := " "
			if name == s.cfg.Plan {
				mark = "*"
			}
			fmt.Println(mark, name)
		}
		return subcommands.ExitSuccess
	})
}
