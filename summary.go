package forecast

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Allocation is how the first month's income is split.
type Allocation struct {
	EmergencyFund Money `json:"emergencyFund"`
	ShortTerm     Money `json:"shortTerm"`
	SIP           Money `json:"sip"`
	Fixed         Money `json:"fixed"`
	// Discretionary is what remains of the income, never negative.
	Discretionary Money `json:"discretionary"`
}

// Total returns the sum of the savings contributions (fixed excluded).
func (a Allocation) Total() Money { return Sum(a.EmergencyFund, a.ShortTerm, a.SIP) }

// NewAllocation returns the first month's allocation of the plan. If a
// projection is given, the contributions are read from its first point.
func NewAllocation(p *Plan, proj *Projection) Allocation {
	a := Allocation{
		EmergencyFund: p.Goals.EmergencyBase.Add(p.Goals.EmergencyExtra),
		ShortTerm:     p.Goals.ShortTermMonthly,
		SIP:           p.Portfolio.TotalSIP(),
		Fixed:         p.Fixed.Total(),
	}
	if proj != nil && len(proj.Points) > 0 {
		a.EmergencyFund = proj.Points[0].EFContribution
		a.SIP = proj.Points[0].PortfolioContribution
	}
	left := p.Income.Sub(a.Fixed).Sub(a.Total())
	a.Discretionary = left.Max(M(0, p.Currency))
	return a
}

// ShortTermCheck reports on the optional short-term target.
type ShortTermCheck struct {
	Target  Money  `json:"target"`
	Month   int    `json:"monthIndex"` // index of the month checked
	Label   string `json:"label"`
	Balance Money  `json:"balance"` // balance on that month
	Reached bool   `json:"reached"`
}

// Summary gathers the headline figures of a projection.
type Summary struct {
	Currency   string     `json:"currency"`
	Income     Money      `json:"monthlyIncome"`
	Fixed      Money      `json:"fixed"`
	Allocation Allocation `json:"allocation"`

	EFTarget Money `json:"emergencyTarget"`
	// EFProgress is the last emergency fund balance, capped at the target,
	// in percent of the target. 0 when there is no target.
	EFProgress      Percent         `json:"efProgress"`
	EFCompletion    *int            `json:"efCompletionMonthIndex"`
	EFCompletionOn  string          `json:"efCompletionLabel,omitempty"` // label of the completion month, empty if never
	FinalLabel      string          `json:"finalLabel"`
	FinalNetWorth   Money           `json:"finalNetWorth"`
	FinalPortfolio  Money           `json:"finalPortfolioValue"`
	FinalEFBalance  Money           `json:"finalEFBalance"`
	FinalShortTerm  Money           `json:"finalShortTermBalance"`
	PortfolioCAGR   Percent         `json:"portfolioCAGR"`
	EFReturn        Percent         `json:"efReturn"`
	PlanMonths      int             `json:"planMonths"`
	ShortTermTarget *ShortTermCheck `json:"shortTermTarget,omitempty"`
}

// NewSummary computes the summary of a plan and its projection.
func NewSummary(p *Plan, proj *Projection) *Summary {
	last := proj.Last()
	s := &Summary{
		Currency:       p.Currency,
		Income:         p.Income,
		Fixed:          p.Fixed.Total(),
		Allocation:     NewAllocation(p, proj),
		EFTarget:       p.Goals.EmergencyTarget,
		EFCompletion:   proj.EFCompletion,
		FinalLabel:     last.Label,
		FinalNetWorth:  last.NetWorth,
		FinalPortfolio: last.PortfolioValue,
		FinalEFBalance: last.EFBalance,
		FinalShortTerm: last.ShortTermBalance,
		PortfolioCAGR:  p.Assumptions.PortfolioCAGR,
		EFReturn:       p.Assumptions.EFReturn,
		PlanMonths:     len(proj.Points),
	}
	if c := proj.EFCompletion; c != nil {
		s.EFCompletionOn = proj.Points[*c].Label
	}

	if target := p.Goals.EmergencyTarget; target.IsPositive() {
		reached := last.EFBalance.Min(target)
		pct := reached.value.Div(target.value).Mul(hundred).Round(0)
		s.EFProgress = Percent(pct.InexactFloat64())
	}

	if target := p.Goals.ShortTermTarget; target.IsPositive() {
		month := len(proj.Points) - 1
		if m := p.Goals.ShortTermMonths; m > 0 && m <= len(proj.Points) {
			month = m - 1
		}
		pt := proj.Points[month]
		s.ShortTermTarget = &ShortTermCheck{
			Target:  target,
			Month:   month,
			Label:   pt.Label,
			Balance: pt.ShortTermBalance,
			Reached: pt.ShortTermBalance.GreaterThanOrEqual(target),
		}
	}
	return s
}
