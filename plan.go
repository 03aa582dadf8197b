package forecast

import (
	"errors"
	"fmt"
	"slices"
)

// MaxPlanMonths bounds the horizon a plan may declare (50 years).
const MaxPlanMonths = 600

// FixedExpenses are the recurring non-discretionary monthly outflows.
type FixedExpenses struct {
	RentEMI Money
	Living  Money
}

// Total returns the sum of all fixed expenses.
func (f FixedExpenses) Total() Money { return f.RentEMI.Add(f.Living) }

// Goals configures the savings goals.
//
// The emergency fund receives EmergencyBase+EmergencyExtra every month until
// EmergencyTarget is reached, then EmergencyBase only: the extra is rerouted
// to the portfolio.
type Goals struct {
	EmergencyTarget  Money
	EmergencyBase    Money
	EmergencyExtra   Money
	ShortTermMonthly Money

	// ShortTermTarget is optional, when set the summary reports whether the
	// short-term bucket reaches it within ShortTermMonths (or the horizon).
	ShortTermTarget Money
	ShortTermMonths int
}

// Fund is one recurring investment line.
type Fund struct {
	ID         string
	Name       string
	MonthlySIP Money
}

// Portfolio is the investment bucket: its value at month 0 and the funds
// receiving a monthly SIP, in insertion order.
type Portfolio struct {
	CurrentValue Money
	Funds        []Fund
}

// TotalSIP returns the sum of all funds' monthly SIP, in the portfolio's
// currency.
func (p Portfolio) TotalSIP() Money {
	total := M(0, p.CurrentValue.Currency())
	for _, f := range p.Funds {
		total.value = total.value.Add(f.MonthlySIP.value)
	}
	return total
}

// Fund returns the index of the fund with this id, or -1.
func (p Portfolio) Fund(id string) int {
	return slices.IndexFunc(p.Funds, func(f Fund) bool { return f.ID == id })
}

// Assumptions are the simulation parameters.
type Assumptions struct {
	PortfolioCAGR Percent // annual growth of the portfolio bucket
	EFReturn      Percent // annual return of the emergency fund
	PlanMonths    int
}

// Months returns the simulated horizon: PlanMonths clamped to at least 1.
func (a Assumptions) Months() int { return max(1, a.PlanMonths) }

// Inputs is everything the projection engine reads.
type Inputs struct {
	// Income is informational: contributions are never capped by it.
	Income      Money
	Fixed       FixedExpenses
	Goals       Goals
	Portfolio   Portfolio
	Assumptions Assumptions
}

// Plan is the persisted snapshot of a household's inputs.
type Plan struct {
	Currency    string
	Income      Money
	Fixed       FixedExpenses
	Goals       Goals
	Portfolio   Portfolio
	Assumptions Assumptions
}

// Inputs returns the engine inputs of this plan.
func (p *Plan) Inputs() Inputs {
	return Inputs{
		Income:      p.Income,
		Fixed:       p.Fixed,
		Goals:       p.Goals,
		Portfolio:   p.Portfolio,
		Assumptions: p.Assumptions,
	}
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	c := *p
	c.Portfolio.Funds = slices.Clone(p.Portfolio.Funds)
	return &c
}

// DefaultPlan returns the plan a new user starts with.
func DefaultPlan() *Plan {
	c := DefaultCurrency
	inr := func(v int) Money { return M(v, c) }
	return &Plan{
		Currency: c,
		Income:   inr(250000),
		Fixed: FixedExpenses{
			RentEMI: inr(70000),
			Living:  inr(65000),
		},
		Goals: Goals{
			EmergencyTarget:  inr(900000),
			EmergencyBase:    inr(15000),
			EmergencyExtra:   inr(40000),
			ShortTermMonthly: inr(10000),
		},
		Portfolio: Portfolio{
			CurrentValue: inr(355875),
			Funds: []Fund{
				{ID: "f1", Name: "Fund A", MonthlySIP: inr(10000)},
				{ID: "f2", Name: "Fund B", MonthlySIP: inr(10000)},
				{ID: "f3", Name: "Fund C", MonthlySIP: inr(10000)},
				{ID: "f4", Name: "Fund D", MonthlySIP: inr(10000)},
				{ID: "f5", Name: "Fund E", MonthlySIP: inr(10000)},
			},
		},
		Assumptions: Assumptions{
			PortfolioCAGR: 14.4,
			EFReturn:      6,
			PlanMonths:    60,
		},
	}
}

// DefaultPlanIn is DefaultPlan with its amounts in currency c. No
// conversion happens, only the unit changes.
func DefaultPlanIn(c string) *Plan {
	p := DefaultPlan()
	if c != "" {
		p.setCurrency(c)
	}
	return p
}

// setCurrency stamps c on every monetary field of the plan.
func (p *Plan) setCurrency(c string) {
	p.Currency = c
	p.Income = p.Income.In(c)
	p.Fixed.RentEMI = p.Fixed.RentEMI.In(c)
	p.Fixed.Living = p.Fixed.Living.In(c)
	p.Goals.EmergencyTarget = p.Goals.EmergencyTarget.In(c)
	p.Goals.EmergencyBase = p.Goals.EmergencyBase.In(c)
	p.Goals.EmergencyExtra = p.Goals.EmergencyExtra.In(c)
	p.Goals.ShortTermMonthly = p.Goals.ShortTermMonthly.In(c)
	p.Goals.ShortTermTarget = p.Goals.ShortTermTarget.In(c)
	p.Portfolio.CurrentValue = p.Portfolio.CurrentValue.In(c)
	for i := range p.Portfolio.Funds {
		p.Portfolio.Funds[i].MonthlySIP = p.Portfolio.Funds[i].MonthlySIP.In(c)
	}
}

// Validate checks the business ranges of the plan. The projection engine
// never calls it: it accepts any input.
func (p *Plan) Validate() error {
	var errs []error
	nonNegative := func(name string, m Money) {
		if m.IsNegative() {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, m.value))
		}
		if m.cur != "" && m.cur != p.Currency {
			errs = append(errs, fmt.Errorf("%s is in %s, the plan is in %s", name, m.cur, p.Currency))
		}
	}
	nonNegative("income", p.Income)
	nonNegative("rent/EMI", p.Fixed.RentEMI)
	nonNegative("living expenses", p.Fixed.Living)
	nonNegative("emergency target", p.Goals.EmergencyTarget)
	nonNegative("emergency base contribution", p.Goals.EmergencyBase)
	nonNegative("emergency extra contribution", p.Goals.EmergencyExtra)
	nonNegative("short-term contribution", p.Goals.ShortTermMonthly)
	nonNegative("short-term target", p.Goals.ShortTermTarget)
	nonNegative("portfolio value", p.Portfolio.CurrentValue)

	if p.Goals.ShortTermMonths < 0 {
		errs = append(errs, fmt.Errorf("short-term months must not be negative, got %d", p.Goals.ShortTermMonths))
	}
	if m := p.Assumptions.PlanMonths; m < 1 || m > MaxPlanMonths {
		errs = append(errs, fmt.Errorf("plan months must be in [1, %d], got %d", MaxPlanMonths, m))
	}
	if r := p.Assumptions.PortfolioCAGR; r <= -100 {
		errs = append(errs, fmt.Errorf("portfolio CAGR must be greater than -100%%, got %v", r))
	}
	if r := p.Assumptions.EFReturn; r <= -100 {
		errs = append(errs, fmt.Errorf("emergency fund return must be greater than -100%%, got %v", r))
	}

	seen := make(map[string]bool, len(p.Portfolio.Funds))
	for _, f := range p.Portfolio.Funds {
		if f.ID == "" {
			errs = append(errs, fmt.Errorf("fund %q has no id", f.Name))
			continue
		}
		if seen[f.ID] {
			errs = append(errs, fmt.Errorf("fund id %q is used twice", f.ID))
		}
		seen[f.ID] = true
		nonNegative(fmt.Sprintf("SIP of fund %q", f.ID), f.MonthlySIP)
	}
	return errors.Join(errs...)
}
