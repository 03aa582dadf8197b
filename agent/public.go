package agent

import (
	"context"
	"fmt"

	"github.com/etnz/forecast"
	"github.com/etnz/forecast/docs"
	"github.com/etnz/forecast/renderer"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Source gives access to the live plan and its projection. A
// forecast.Planner is a Source.
type Source interface {
	Snapshot() (*forecast.Plan, *forecast.Projection)
}

// creates the facilitator
func newFacilitator(model string, experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: modelOrDefault(model),
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is here to understand and improve a personal savings plan: an emergency fund,
			a short-term bucket and an investment portfolio fed by monthly SIPs.
			Devise a plan of questions to ask to each experts and come up with the best response to the user's request.
			Answer in markdown, quote figures with their currency.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewEconomist returns an expert grounded on Google Search, for rates,
// inflation and market returns.
func NewEconomist(model string) *Expert {
	return &Expert{
		Name: "Economist",
		Description: `This is an economist, aware of interest rates, inflation and the historical
		returns of the different asset classes and funds.
		Ask the Economist whenever you need recent or grounding information to choose assumptions.`,
		ModelName: modelOrDefault(model),
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an economist. You search and find anything related to interest rates,
			inflation, savings accounts and long term returns of funds and indices.
			You leverage Google Search to ground your assertions in a solid truth and quote your sources.
			`}}},
		},
	}
}

// NewPlanner returns the expert reading the user's plan and running what-if
// projections.
func NewPlanner(model string, src Source) *Expert {
	lib := []Function{PlanFunc(src), ProjectFunc(src)}
	return &Expert{
		Name: "Planner",
		Description: `This is the Planner. It is in charge of the user's savings plan.
		It can read the plan and its projection, and run what-if projections with different
		assumptions, goals or income.`,
		ModelName: modelOrDefault(model),
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are a financial planner in charge of the user's savings plan.
				Use the Plan tool to read the current plan and the Project tool to compare scenarios.
				Never guess a figure that a tool can compute.

				This is how the projection works:

			` + topic("engine")}}},
		},
		Library: NewLibrary(lib),
	}
}

func modelOrDefault(model string) string {
	if model == "" {
		return DefaultModel
	}
	return model
}

func topic(name string) string {
	t, err := docs.Page(name)
	if err != nil {
		return ""
	}
	return t
}

// PlanFunc returns the function describing the current plan and projection.
func PlanFunc(src Source) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        "Plan",
			Description: `Plan returns the summary of the user's current savings plan: income, fixed expenses, the monthly allocation, the emergency fund progress and the final net worth, followed by the per fund table.`,
			Parameters:  &genai.Schema{Type: genai.TypeObject},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown report of the plan.",
			},
		},
		Func: func(ctx context.Context, args map[string]any) (string, error) {
			plan, proj := src.Snapshot()
			return renderer.RenderSummary(renderer.NewSummary("current", plan, proj)) + "\n" +
				renderer.RenderFunds(renderer.NewFunds("current", plan, proj)), nil
		},
	}
}

// whatIf lists the Project parameters that override a plan field.
var whatIf = []struct {
	name        string
	description string
	integer     bool
	apply       func(p *forecast.Plan, v float64)
}{
	{"monthlyIncome", "Monthly income.", false, func(p *forecast.Plan, v float64) { p.Income = forecast.M(v, p.Currency) }},
	{"rentEmi", "Monthly rent or EMI.", false, func(p *forecast.Plan, v float64) { p.Fixed.RentEMI = forecast.M(v, p.Currency) }},
	{"living", "Monthly living expenses.", false, func(p *forecast.Plan, v float64) { p.Fixed.Living = forecast.M(v, p.Currency) }},
	{"emergencyTarget", "Emergency fund target.", false, func(p *forecast.Plan, v float64) { p.Goals.EmergencyTarget = forecast.M(v, p.Currency) }},
	{"emergencyBaseMonthly", "Emergency fund base monthly contribution.", false, func(p *forecast.Plan, v float64) { p.Goals.EmergencyBase = forecast.M(v, p.Currency) }},
	{"emergencyExtraMonthly", "Emergency fund extra monthly contribution, rerouted to the portfolio once the target is reached.", false, func(p *forecast.Plan, v float64) {
		p.Goals.EmergencyExtra = forecast.M(v, p.Currency)
	}},
	{"shortTermMonthly", "Short-term bucket monthly contribution.", false, func(p *forecast.Plan, v float64) { p.Goals.ShortTermMonthly = forecast.M(v, p.Currency) }},
	{"currentValue", "Portfolio value today.", false, func(p *forecast.Plan, v float64) { p.Portfolio.CurrentValue = forecast.M(v, p.Currency) }},
	{"portfolioCAGR", "Expected annual return of the portfolio, in percent.", false, func(p *forecast.Plan, v float64) { p.Assumptions.PortfolioCAGR = forecast.Percent(v) }},
	{"efReturn", "Expected annual return of the emergency fund, in percent.", false, func(p *forecast.Plan, v float64) { p.Assumptions.EFReturn = forecast.Percent(v) }},
	{"planMonths", "Number of months to project.", true, func(p *forecast.Plan, v float64) { p.Assumptions.PlanMonths = int(v) }},
}

// ProjectFunc returns the what-if projection function. The live plan is
// never modified.
func ProjectFunc(src Source) *Func {
	props := map[string]*genai.Schema{
		"every": {
			Type:        genai.TypeInteger,
			Description: "Show one row every n months in the projection table, 12 by default.",
		},
	}
	for _, w := range whatIf {
		s := &genai.Schema{Type: genai.TypeNumber, Description: w.description + " Defaults to the current plan's value."}
		if w.integer {
			s.Type = genai.TypeInteger
		}
		props[w.name] = s
	}

	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Project",
			Description: `Project runs the projection of the user's plan with some fields overridden, without changing the plan.
			Use it to answer what-if questions, like "what if the portfolio returns 8%" or "what if I save 5000 more each month".`,
			Parameters: &genai.Schema{Type: genai.TypeObject, Properties: props},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown report of the scenario: its summary and the projection table.",
			},
		},
		Func: func(ctx context.Context, args map[string]any) (string, error) {
			plan, current := src.Snapshot()
			for _, w := range whatIf {
				v, ok, err := number(args, w.name)
				if err != nil {
					return "", err
				}
				if ok {
					w.apply(plan, v)
				}
			}
			if err := plan.Validate(); err != nil {
				return "", fmt.Errorf("invalid scenario: %w", err)
			}
			every, _, err := number(args, "every")
			if err != nil {
				return "", err
			}
			if every == 0 {
				every = 12
			}

			proj := forecast.ComputeAt(plan.Inputs(), current.Start)
			return renderer.RenderSummary(renderer.NewSummary("what-if", plan, proj)) + "\n" +
				renderer.RenderProjection(renderer.NewProjectionTable("what-if", proj, int(every))), nil
		},
	}
}

// number reads an optional numeric argument.
func number(args map[string]any, name string) (float64, bool, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	}
	return 0, false, fmt.Errorf("argument %q is not a number but %T", name, v)
}
