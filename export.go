package forecast

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
	"github.com/xuri/excelize/v2"
)

// MarshalJSON writes the projection document. Keys follow the planner's
// historical export format so that queries written against it keep working.
func (p *Projection) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("start", p.Start)
	w.Append("currency", p.currency())
	w.Append("efCompletionMonthIndex", p.EFCompletion)

	points := make([]*jsonObjectWriter, 0, len(p.Points))
	for _, pt := range p.Points {
		var pw jsonObjectWriter
		pw.Append("monthIndex", pt.MonthIndex)
		pw.Append("label", pt.Label)
		pw.Append("efBalance", pt.EFBalance)
		pw.Append("efContribution", pt.EFContribution)
		pw.Append("shortTermBalance", pt.ShortTermBalance)
		pw.Append("portfolioValue", pt.PortfolioValue)
		pw.Append("portfolioContribution", pt.PortfolioContribution)
		pw.Append("netWorth", pt.NetWorth)
		points = append(points, &pw)
	}
	w.Append("points", points)

	funds := make([]*jsonObjectWriter, 0, len(p.Funds))
	for _, f := range p.Funds {
		var fw jsonObjectWriter
		fw.Append("fundId", f.FundID)
		fw.Append("name", f.Name)
		fw.Append("values", f.Values)
		funds = append(funds, &fw)
	}
	w.Append("perFundValues", funds)
	return w.MarshalJSON()
}

func (p *Projection) currency() string {
	if len(p.Points) == 0 {
		return ""
	}
	return p.Points[0].NetWorth.Currency()
}

// EncodeProjection writes the projection as an indented JSON document.
func EncodeProjection(w io.Writer, p *Projection) error {
	data, err := p.MarshalJSON()
	if err != nil {
		return fmt.Errorf("could not encode projection: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("could not indent projection: %w", err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(w)
	return err
}

// Query evaluates a JSONPath expression against the projection document,
// like "$.points[23].netWorth" or "$.perFundValues[*].fundId".
//
// Numbers are returned as float64.
func Query(p *Projection, path string) (any, error) {
	data, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not read projection document: %w", err)
	}
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", path, err)
	}
	return v, nil
}

// CSVHeader is the header row of the projection table in WriteCSV and in the
// Projections sheet of WriteXLSX.
var CSVHeader = []string{
	"Month",
	"EF Balance",
	"EF Contribution",
	"Short-term Balance",
	"Portfolio Value",
	"Portfolio Contribution",
	"Net Worth",
}

// keyFigures lists the plan's inputs as (key, value) pairs. Values are a
// string, a Money, a Percent or an int.
func keyFigures(plan *Plan) [][2]any {
	return [][2]any{
		{"Currency", plan.Currency},
		{"Monthly Income", plan.Income},
		{"EMI + Rent", plan.Fixed.RentEMI},
		{"Living", plan.Fixed.Living},
		{"Emergency Target", plan.Goals.EmergencyTarget},
		{"EF Base", plan.Goals.EmergencyBase},
		{"EF Extra", plan.Goals.EmergencyExtra},
		{"Short-term Monthly", plan.Goals.ShortTermMonthly},
		{"Portfolio CAGR %", plan.Assumptions.PortfolioCAGR},
		{"EF Return %", plan.Assumptions.EFReturn},
		{"Plan Months", plan.Assumptions.PlanMonths},
	}
}

// pointAmounts are the amount columns of a projection row, in CSVHeader order.
func pointAmounts(p ProjectionPoint) []Money {
	return []Money{p.EFBalance, p.EFContribution, p.ShortTermBalance, p.PortfolioValue, p.PortfolioContribution, p.NetWorth}
}

// WriteCSV writes the plan's key figures followed by the projection table.
func WriteCSV(w io.Writer, plan *Plan, proj *Projection) error {
	cw := csv.NewWriter(w)

	text := func(v any) string {
		switch v := v.(type) {
		case Money:
			return v.value.String()
		case Percent:
			return strconv.FormatFloat(float64(v), 'f', -1, 64)
		default:
			return fmt.Sprint(v)
		}
	}

	rows := [][]string{{"Key", "Value"}}
	for _, kv := range keyFigures(plan) {
		rows = append(rows, []string{text(kv[0]), text(kv[1])})
	}
	rows = append(rows, []string{}, CSVHeader)
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	for _, p := range proj.Points {
		row := []string{p.Label}
		for _, m := range pointAmounts(p) {
			row = append(row, text(m))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write projection row %d: %w", p.MonthIndex, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Sheet names of the workbook written by WriteXLSX.
const (
	SummarySheet     = "Summary"
	ProjectionsSheet = "Projections"
)

// WriteXLSX writes a workbook with the plan's key figures on the Summary
// sheet and one row per month on the Projections sheet. Amounts and rates
// are numeric cells.
func WriteXLSX(w io.Writer, plan *Plan, proj *Projection) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("failed to name the summary sheet: %w", err)
	}
	if _, err := f.NewSheet(ProjectionsSheet); err != nil {
		return fmt.Errorf("failed to add the projections sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	cell := func(v any) any {
		switch v := v.(type) {
		case Money:
			return v.AsFloat()
		case Percent:
			return float64(v)
		default:
			return v
		}
	}

	summary := [][]any{{"Key", "Value"}}
	for _, kv := range keyFigures(plan) {
		summary = append(summary, []any{kv[0], cell(kv[1])})
	}
	projections := [][]any{make([]any, 0, len(CSVHeader))}
	for _, h := range CSVHeader {
		projections[0] = append(projections[0], h)
	}
	for _, p := range proj.Points {
		row := []any{p.Label}
		for _, m := range pointAmounts(p) {
			row = append(row, cell(m))
		}
		projections = append(projections, row)
	}

	for _, sheet := range []struct {
		name  string
		rows  [][]any
		width float64
	}{
		{SummarySheet, summary, 20},
		{ProjectionsSheet, projections, 22},
	} {
		for i := range sheet.rows {
			axis, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet.name, axis, &sheet.rows[i]); err != nil {
				return fmt.Errorf("failed to write %s row %d: %w", sheet.name, i+1, err)
			}
		}
		if err := f.SetRowStyle(sheet.name, 1, 1, bold); err != nil {
			return err
		}
		last, err := excelize.ColumnNumberToName(len(sheet.rows[0]))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.name, "A", last, sheet.width); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
