package agent

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/etnz/forecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func inr(v float64) forecast.Money { return forecast.M(v, "INR") }

func testPlanner() *forecast.Planner {
	p := &forecast.Plan{
		Currency: "INR",
		Income:   inr(100000),
		Fixed:    forecast.FixedExpenses{RentEMI: inr(20000), Living: inr(10000)},
		Goals: forecast.Goals{
			EmergencyTarget:  inr(60000),
			EmergencyBase:    inr(10000),
			EmergencyExtra:   inr(20000),
			ShortTermMonthly: inr(1000),
		},
		Portfolio: forecast.Portfolio{
			CurrentValue: inr(100000),
			Funds: []forecast.Fund{
				{ID: "a", Name: "Alpha", MonthlySIP: inr(3000)},
				{ID: "b", Name: "Beta", MonthlySIP: inr(2000)},
			},
		},
		Assumptions: forecast.Assumptions{PlanMonths: 4},
	}
	clock := func() time.Time { return time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC) }
	return forecast.NewPlanner(p, forecast.WithClock(clock))
}

func TestLoop(t *testing.T) {
	var out bytes.Buffer
	a := New(&out, strings.NewReader("how much?\n\nbye\nnever read\n"), "")
	a.Render = strings.ToUpper

	var asked []string
	ask := func(_ context.Context, parts ...*genai.Part) (*genai.Content, error) {
		asked = append(asked, parts[0].Text)
		return &genai.Content{Parts: []*genai.Part{{Text: "answer "}, {Text: "to " + parts[0].Text}}}, nil
	}
	require.NoError(t, a.loop(context.Background(), ask, "first", " "))

	assert.Equal(t, []string{"first", "how much?"}, asked)
	assert.Contains(t, out.String(), "assist> first\nANSWER TO FIRST\n")
	assert.Contains(t, out.String(), "ANSWER TO HOW MUCH?\n")
	assert.NotContains(t, out.String(), "NEVER READ")
}

func TestLoop_EOF(t *testing.T) {
	a := New(&bytes.Buffer{}, strings.NewReader(""), "")
	ask := func(context.Context, ...*genai.Part) (*genai.Content, error) {
		t.Fatal("nothing to ask")
		return nil, nil
	}
	assert.NoError(t, a.loop(context.Background(), ask))
}

func TestLoop_Error(t *testing.T) {
	a := New(&bytes.Buffer{}, strings.NewReader(""), "")
	boom := errors.New("boom")
	ask := func(context.Context, ...*genai.Part) (*genai.Content, error) { return nil, boom }
	assert.ErrorIs(t, a.loop(context.Background(), ask, "hi"), boom)
}

func TestExpert_NotStarted(t *testing.T) {
	e := NewEconomist("")
	assert.Equal(t, DefaultModel, e.ModelName)
	_, err := e.Ask(context.Background(), &genai.Part{Text: "hi"})
	assert.Error(t, err)

	resp := e.Call(context.Background(), "1", map[string]any{"question": 42})
	assert.Contains(t, resp.Response["error"], "invalid question type")
}

func TestLibrary(t *testing.T) {
	src := testPlanner()
	lib := NewLibrary([]Function{PlanFunc(src), ProjectFunc(src)})

	resp := lib(context.Background(), &genai.FunctionCall{ID: "1", Name: "Plan"})
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, "Plan", resp.Name)
	assert.Contains(t, resp.Response["output"], "Alpha")

	resp = lib(context.Background(), &genai.FunctionCall{ID: "2", Name: "Nope"})
	assert.Equal(t, "unknown function Nope", resp.Response["error"])

	decls := NewDeclaration([]Function{PlanFunc(src), ProjectFunc(src)})
	require.Len(t, decls, 2)
	assert.Equal(t, "Project", decls[1].Name)
	assert.Equal(t, genai.TypeInteger, decls[1].Parameters.Properties["planMonths"].Type)
	assert.Equal(t, genai.TypeNumber, decls[1].Parameters.Properties["portfolioCAGR"].Type)
}

func TestProject(t *testing.T) {
	src := testPlanner()
	project := ProjectFunc(src)

	out, err := project.Func(context.Background(), map[string]any{"planMonths": 2.0, "every": 1.0})
	require.NoError(t, err)
	assert.Contains(t, out, "Feb 25")
	assert.NotContains(t, out, "Mar 25")

	// The live plan is left unchanged.
	assert.Equal(t, 4, src.Plan().Assumptions.PlanMonths)
	assert.Len(t, src.Projection().Points, 4)

	_, err = project.Func(context.Background(), map[string]any{"planMonths": 0.0})
	assert.ErrorContains(t, err, "invalid scenario")

	resp := project.Call(context.Background(), "3", map[string]any{"portfolioCAGR": "high"})
	assert.Equal(t, "Project", resp.Name)
	assert.Contains(t, resp.Response["error"], `"portfolioCAGR" is not a number`)
}
