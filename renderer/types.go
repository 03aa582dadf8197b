package renderer

import (
	"github.com/etnz/forecast"
	"github.com/shopspring/decimal"
)

// Summary is the data of the summary report.
type Summary struct {
	// Name of the plan.
	Name string
	*forecast.Summary
}

// NewSummary returns the summary report data of a plan and its projection.
func NewSummary(name string, p *forecast.Plan, proj *forecast.Projection) *Summary {
	return &Summary{Name: name, Summary: forecast.NewSummary(p, proj)}
}

// Row is one line of the projection table.
type Row struct {
	forecast.ProjectionPoint
	// EFCompletion is set on the month the emergency fund reaches its target.
	EFCompletion bool
}

// ProjectionTable is the data of the projection report.
type ProjectionTable struct {
	Name   string
	Start  string // label of the first month
	End    string // label of the last month
	Months int
	Every  int
	Rows   []Row
}

// NewProjectionTable returns one row every n months (every month if n < 2),
// the last month is always included.
func NewProjectionTable(name string, proj *forecast.Projection, every int) *ProjectionTable {
	return NewProjectionRange(name, proj, 0, len(proj.Points), every)
}

// NewProjectionRange is NewProjectionTable restricted to the months in
// [from, to). The range is clipped to the projection, an empty range gives a
// table without rows.
func NewProjectionRange(name string, proj *forecast.Projection, from, to, every int) *ProjectionTable {
	every = max(1, every)
	from, to = max(0, from), min(len(proj.Points), to)
	t := &ProjectionTable{Name: name, Every: every}
	if from >= to {
		return t
	}
	t.Start, t.End, t.Months = proj.Points[from].Label, proj.Points[to-1].Label, to-from
	for i := from; i < to; i++ {
		if (i-from)%every != 0 && i != to-1 {
			continue
		}
		done := proj.EFCompletion != nil && *proj.EFCompletion == i
		t.Rows = append(t.Rows, Row{ProjectionPoint: proj.Points[i], EFCompletion: done})
	}
	return t
}

// FundRow is one line of the funds report.
type FundRow struct {
	ID    string
	Name  string
	SIP   forecast.Money
	Share forecast.Percent // of the total SIP
	Final forecast.Money   // value on the last month
}

// Funds is the data of the funds report.
type Funds struct {
	Name       string
	FinalLabel string
	TotalSIP   forecast.Money
	FinalTotal forecast.Money
	Funds      []FundRow
}

// NewFunds returns the funds report data.
func NewFunds(name string, p *forecast.Plan, proj *forecast.Projection) *Funds {
	f := &Funds{
		Name:       name,
		FinalLabel: proj.Last().Label,
		TotalSIP:   p.Portfolio.TotalSIP(),
		FinalTotal: forecast.M(0, p.Currency),
	}
	total := f.TotalSIP.Decimal()
	for i, fund := range p.Portfolio.Funds {
		row := FundRow{ID: fund.ID, Name: fund.Name, SIP: fund.MonthlySIP, Final: forecast.M(0, p.Currency)}
		if total.IsPositive() {
			share := fund.MonthlySIP.Decimal().Div(total).Mul(decimal.NewFromInt(100))
			row.Share = forecast.Percent(share.InexactFloat64())
		}
		if i < len(proj.Funds) && len(proj.Funds[i].Values) > 0 {
			values := proj.Funds[i].Values
			row.Final = values[len(values)-1]
		}
		f.FinalTotal = f.FinalTotal.Add(row.Final)
		f.Funds = append(f.Funds, row)
	}
	return f
}
