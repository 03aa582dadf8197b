package forecast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// PlanVersion is the version of the plan document written by EncodePlan.
const PlanVersion = 1

// ErrUnsupportedVersion is returned when decoding a plan from an unknown version.
var ErrUnsupportedVersion = errors.New("unsupported plan version")

// This file persists a plan as a single human-readable JSON document.
//
// Money amounts are plain numbers, the currency is declared once at the top
// of the document. Fields are always written in the same order so that plans
// stay diff-friendly in a git repository.

// MarshalJSON writes the plan document.
func (p *Plan) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("version", PlanVersion)
	w.Append("currency", p.Currency)
	w.Append("monthlyIncome", p.Income)
	w.Object("fixed", func(o *jsonObjectWriter) {
		o.Append("rentEmi", p.Fixed.RentEMI)
		o.Append("living", p.Fixed.Living)
	})
	w.Object("goals", func(o *jsonObjectWriter) {
		g := p.Goals
		o.Append("emergencyTarget", g.EmergencyTarget)
		o.Append("emergencyBaseMonthly", g.EmergencyBase)
		o.Append("emergencyExtraMonthly", g.EmergencyExtra)
		o.Append("shortTermMonthly", g.ShortTermMonthly)
		o.Optional("shortTermTarget", g.ShortTermTarget)
		o.Optional("shortTermMonths", g.ShortTermMonths)
	})
	w.Object("portfolio", func(o *jsonObjectWriter) {
		o.Append("currentValue", p.Portfolio.CurrentValue)
		funds := make([]*jsonObjectWriter, 0, len(p.Portfolio.Funds))
		for _, f := range p.Portfolio.Funds {
			var fw jsonObjectWriter
			fw.Append("id", f.ID)
			fw.Append("name", f.Name)
			fw.Append("monthlySIP", f.MonthlySIP)
			funds = append(funds, &fw)
		}
		o.Append("funds", funds)
	})
	w.Object("assumptions", func(o *jsonObjectWriter) {
		a := p.Assumptions
		o.Append("portfolioCAGR", float64(a.PortfolioCAGR))
		o.Append("efReturn", float64(a.EFReturn))
		o.Append("planMonths", a.PlanMonths)
	})
	return w.MarshalJSON()
}

// UnmarshalJSON reads a plan document.
func (p *Plan) UnmarshalJSON(data []byte) error {
	// jplan is the document read from the file using json parser.
	type jplan struct {
		Version  int    `json:"version"`
		Currency string `json:"currency"`
		Income   Money  `json:"monthlyIncome"`
		Fixed    struct {
			RentEMI Money `json:"rentEmi"`
			Living  Money `json:"living"`
		} `json:"fixed"`
		Goals struct {
			EmergencyTarget  Money `json:"emergencyTarget"`
			EmergencyBase    Money `json:"emergencyBaseMonthly"`
			EmergencyExtra   Money `json:"emergencyExtraMonthly"`
			ShortTermMonthly Money `json:"shortTermMonthly"`
			ShortTermTarget  Money `json:"shortTermTarget"`
			ShortTermMonths  int   `json:"shortTermMonths"`
		} `json:"goals"`
		Portfolio struct {
			CurrentValue Money `json:"currentValue"`
			Funds        []struct {
				ID         string `json:"id"`
				Name       string `json:"name"`
				MonthlySIP Money  `json:"monthlySIP"`
			} `json:"funds"`
		} `json:"portfolio"`
		Assumptions struct {
			PortfolioCAGR float64 `json:"portfolioCAGR"`
			EFReturn      float64 `json:"efReturn"`
			PlanMonths    int     `json:"planMonths"`
		} `json:"assumptions"`
	}

	var j jplan
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if j.Version != PlanVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, j.Version)
	}

	*p = Plan{
		Income: j.Income,
		Fixed:  FixedExpenses{RentEMI: j.Fixed.RentEMI, Living: j.Fixed.Living},
		Goals: Goals{
			EmergencyTarget:  j.Goals.EmergencyTarget,
			EmergencyBase:    j.Goals.EmergencyBase,
			EmergencyExtra:   j.Goals.EmergencyExtra,
			ShortTermMonthly: j.Goals.ShortTermMonthly,
			ShortTermTarget:  j.Goals.ShortTermTarget,
			ShortTermMonths:  j.Goals.ShortTermMonths,
		},
		Portfolio: Portfolio{
			CurrentValue: j.Portfolio.CurrentValue,
			Funds:        make([]Fund, 0, len(j.Portfolio.Funds)),
		},
		Assumptions: Assumptions{
			PortfolioCAGR: Percent(j.Assumptions.PortfolioCAGR),
			EFReturn:      Percent(j.Assumptions.EFReturn),
			PlanMonths:    j.Assumptions.PlanMonths,
		},
	}
	for _, f := range j.Portfolio.Funds {
		p.Portfolio.Funds = append(p.Portfolio.Funds, Fund{ID: f.ID, Name: f.Name, MonthlySIP: f.MonthlySIP})
	}

	currency := j.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	p.setCurrency(currency)
	return nil
}

// EncodePlan writes the plan as an indented JSON document.
func EncodePlan(w io.Writer, p *Plan) error {
	data, err := p.MarshalJSON()
	if err != nil {
		return fmt.Errorf("could not encode plan: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("could not indent plan: %w", err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(w)
	return err
}

// DecodePlan reads a plan document.
func DecodePlan(r io.Reader) (*Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read plan: %w", err)
	}
	p := new(Plan)
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("could not decode plan: %w", err)
	}
	return p, nil
}

// LoadPlan reads the plan stored in filename. The error wraps fs.ErrNotExist
// if the file does not exist.
func LoadPlan(filename string) (*Plan, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := DecodePlan(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return p, nil
}

// SavePlan writes the plan to filename, atomically replacing any previous
// version.
func SavePlan(filename string, p *Plan) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("could not create folder for %q: %w", filename, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*")
	if err != nil {
		return fmt.Errorf("could not create %q: %w", filename, err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodePlan(tmp, p); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write %q: %w", filename, err)
	}
	return os.Rename(tmp.Name(), filename)
}

// LoadPlanOrDefault is like LoadPlan but returns the DefaultPlan if the file
// does not exist.
func LoadPlanOrDefault(filename string) (*Plan, error) {
	p, err := LoadPlan(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPlan(), nil
	}
	return p, err
}
