package forecast

import (
	"github.com/etnz/forecast/date"
	"github.com/shopspring/decimal"
)

// precision is the number of decimal places kept on running balances
// between two months.
const precision = 12

// ProjectionPoint is one month's simulated state, after that month's growth
// and contributions. Monetary fields are rounded to whole units.
type ProjectionPoint struct {
	MonthIndex            int
	Label                 string
	EFBalance             Money
	EFContribution        Money
	ShortTermBalance      Money
	PortfolioValue        Money
	PortfolioContribution Money
	// NetWorth is exactly EFBalance + ShortTermBalance + PortfolioValue.
	NetWorth Money
}

// FundSeries is the simulated value of one fund, month by month.
type FundSeries struct {
	FundID string
	Name   string
	Values []Money
}

// Projection is the output of the projection engine.
type Projection struct {
	Start  date.Date
	Points []ProjectionPoint
	// EFCompletion is the index of the first month the emergency fund reached
	// its target, nil if it never did within the horizon.
	EFCompletion *int
	Funds        []FundSeries
}

// Last returns the last point of the projection.
func (p *Projection) Last() ProjectionPoint { return p.Points[len(p.Points)-1] }

// EFCompleted reports whether the emergency fund completed on month i or before.
func (p *Projection) EFCompleted(i int) bool {
	return p.EFCompletion != nil && *p.EFCompletion <= i
}

// efState is the emergency fund latch. The transition is one-way.
type efState int

const (
	accumulating efState = iota
	completed
)

// Compute runs the projection engine with labels starting on the current month.
func Compute(in Inputs) *Projection { return ComputeAt(in, date.Today()) }

// ComputeAt runs the projection engine with labels starting on start's month.
//
// It simulates in.Assumptions.Months() months of the three buckets:
//   - the emergency fund grows at EFReturn and receives base+extra until it
//     reaches its target, then base only,
//   - the short-term bucket accumulates its monthly contribution, no growth,
//   - the portfolio grows at PortfolioCAGR and receives the sum of the SIPs,
//     plus the emergency fund extra once the emergency fund has completed.
//
// Every fund gets a fixed share of the portfolio contribution equal to its
// share of the total SIP. The function has no failure path: any input
// produces a well-defined projection.
func ComputeAt(in Inputs, start date.Date) *Projection {
	var (
		cur        = in.Portfolio.CurrentValue.Currency()
		months     = in.Assumptions.Months()
		efGrowth   = decimal.NewFromInt(1).Add(in.Assumptions.EFReturn.MonthlyRate())
		pfGrowth   = decimal.NewFromInt(1).Add(in.Assumptions.PortfolioCAGR.MonthlyRate())
		base       = in.Goals.EmergencyBase.value
		extra      = in.Goals.EmergencyExtra.value
		target     = in.Goals.EmergencyTarget.value
		shortTerm  = in.Goals.ShortTermMonthly.value
		baseSIP    = decimal.Zero
		efBalance  = decimal.Zero
		stBalance  = decimal.Zero
		pfValue    = in.Portfolio.CurrentValue.value
		state      = accumulating
		completion *int
	)
	if cur == "" {
		cur = in.Goals.EmergencyTarget.Currency()
	}
	// Amounts are read in the plan's currency whatever their tag.
	for _, f := range in.Portfolio.Funds {
		baseSIP = baseSIP.Add(f.MonthlySIP.value)
	}
	whole := func(v decimal.Decimal) Money { return Money{value: v.Round(0), cur: cur} }

	// Shares are pinned on the base SIP, a zero total falls back to a divisor of 1.
	divisor := baseSIP
	if divisor.IsZero() {
		divisor = decimal.NewFromInt(1)
	}
	shares := make([]decimal.Decimal, len(in.Portfolio.Funds))
	fundValues := make([]decimal.Decimal, len(in.Portfolio.Funds))
	funds := make([]FundSeries, len(in.Portfolio.Funds))
	for i, f := range in.Portfolio.Funds {
		shares[i] = f.MonthlySIP.value.Div(divisor)
		fundValues[i] = pfValue.Mul(shares[i])
		funds[i] = FundSeries{FundID: f.ID, Name: f.Name, Values: make([]Money, 0, months)}
	}

	points := make([]ProjectionPoint, 0, months)
	for i := 0; i < months; i++ {
		// Contributions are decided on the state at the start of the month.
		efContribution := base
		pfContribution := baseSIP
		if state == accumulating {
			efContribution = base.Add(extra)
		} else {
			pfContribution = baseSIP.Add(extra)
		}

		efBalance = efBalance.Mul(efGrowth).Add(efContribution).Round(precision)
		if state == accumulating && efBalance.GreaterThanOrEqual(target) {
			state = completed
			month := i
			completion = &month
		}

		stBalance = stBalance.Add(shortTerm)

		pfValue = pfValue.Mul(pfGrowth).Add(pfContribution).Round(precision)
		for j := range fundValues {
			fundValues[j] = fundValues[j].Mul(pfGrowth).Add(pfContribution.Mul(shares[j])).Round(precision)
			funds[j].Values = append(funds[j].Values, whole(fundValues[j]))
		}

		p := ProjectionPoint{
			MonthIndex:            i,
			Label:                 start.AddMonths(i).Label(),
			EFBalance:             whole(efBalance),
			EFContribution:        whole(efContribution),
			ShortTermBalance:      whole(stBalance),
			PortfolioValue:        whole(pfValue),
			PortfolioContribution: whole(pfContribution),
		}
		p.NetWorth = p.EFBalance.Add(p.ShortTermBalance).Add(p.PortfolioValue)
		points = append(points, p)
	}

	return &Projection{
		Start:        start.StartOfMonth(),
		Points:       points,
		EFCompletion: completion,
		Funds:        funds,
	}
}
