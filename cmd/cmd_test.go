package cmd

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/forecast"
	"github.com/etnz/forecast/config"
	"github.com/etnz/forecast/store"
	"github.com/etnz/forecast/docs"
	"github.com/google/subcommands"
	"github.com/xuri/excelize/v2"
)

// setupWorkspace isolates the configuration and the store in a temporary
// folder and returns the folder of the plans.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv(config.EnvStoreDriver, config.DriverFile)
	t.Setenv(config.EnvStorePath, filepath.Join(dir, "plans"))
	t.Setenv(config.EnvCurrency, "INR")
	t.Setenv(config.EnvPlan, "household")
	t.Setenv(EnvTestingNow, "2025-01-15")
	return filepath.Join(dir, "plans")
}

// run executes the subcommand c with args, as fcs would.
func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("%s %v: %v", c.Name(), args, err)
	}
	return c.Execute(context.Background(), fs)
}

func loadPlan(t *testing.T, dir string) *forecast.Plan {
	t.Helper()
	p, err := forecast.LoadPlan(filepath.Join(dir, "household.json"))
	if err != nil {
		t.Fatalf("LoadPlan() failed: %v", err)
	}
	return p
}

func TestNow(t *testing.T) {
	t.Setenv(EnvTestingNow, "2025-03-04")
	if got, want := now(), time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("now() = %v, want %v", got, want)
	}
}

func TestPlanCommands(t *testing.T) {
	dir := setupWorkspace(t)

	steps := []struct {
		cmd  subcommands.Command
		args []string
	}{
		{&setIncomeCmd{}, []string{"150000"}},
		{&setFixedCmd{}, []string{"-rent", "30000", "-living", "20000"}},
		{&setGoalsCmd{}, []string{"-target", "300000", "-base", "10000", "-extra", "20000", "-short-term", "5000"}},
		{&setAssumptionsCmd{}, []string{"-cagr", "12%", "-ef-return", "6", "-months", "36"}},
		{&setValueCmd{}, []string{"100000"}},
	}
	for _, s := range steps {
		if got := run(t, s.cmd, s.args...); got != subcommands.ExitSuccess {
			t.Fatalf("%s %v = %v, want success", s.cmd.Name(), s.args, got)
		}
	}

	p := loadPlan(t, dir)
	checks := []struct {
		name      string
		got, want forecast.Money
	}{
		{"income", p.Income, forecast.M(150000, "INR")},
		{"rent", p.Fixed.RentEMI, forecast.M(30000, "INR")},
		{"living", p.Fixed.Living, forecast.M(20000, "INR")},
		{"target", p.Goals.EmergencyTarget, forecast.M(300000, "INR")},
		{"short-term", p.Goals.ShortTermMonthly, forecast.M(5000, "INR")},
		{"value", p.Portfolio.CurrentValue, forecast.M(100000, "INR")},
	}
	for _, c := range checks {
		if !c.got.Equal(c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if p.Assumptions.PortfolioCAGR != 12 || p.Assumptions.EFReturn != 6 || p.Assumptions.PlanMonths != 36 {
		t.Errorf("assumptions = %+v, want 12%%, 6%%, 36 months", p.Assumptions)
	}
}

func TestFundCommands(t *testing.T) {
	dir := setupWorkspace(t)

	if got := run(t, &addFundCmd{}, "-sip", "2500", "Small", "Cap"); got != subcommands.ExitSuccess {
		t.Fatalf("add-fund = %v, want success", got)
	}
	p := loadPlan(t, dir)
	n := len(forecast.DefaultPlan().Portfolio.Funds)
	if len(p.Portfolio.Funds) != n+1 {
		t.Fatalf("got %d funds, want %d", len(p.Portfolio.Funds), n+1)
	}
	added := p.Portfolio.Funds[n]
	if added.Name != "Small Cap" || !added.MonthlySIP.Equal(forecast.M(2500, "INR")) {
		t.Errorf("added fund = %+v, want Small Cap with a 2500 SIP", added)
	}

	if got := run(t, &setSIPCmd{}, added.ID, "4000"); got != subcommands.ExitSuccess {
		t.Fatalf("set-sip = %v, want success", got)
	}
	if sip := loadPlan(t, dir).Portfolio.Funds[n].MonthlySIP; !sip.Equal(forecast.M(4000, "INR")) {
		t.Errorf("SIP = %v, want 4000", sip)
	}

	if got := run(t, &setSIPCmd{}, "unknown", "4000"); got != subcommands.ExitFailure {
		t.Errorf("set-sip unknown = %v, want failure", got)
	}
	if got := run(t, &removeFundCmd{}, added.ID); got != subcommands.ExitSuccess {
		t.Fatalf("remove-fund = %v, want success", got)
	}
	if got := len(loadPlan(t, dir).Portfolio.Funds); got != n {
		t.Errorf("got %d funds after removal, want %d", got, n)
	}
	if got := run(t, &addFundCmd{}); got != subcommands.ExitUsageError {
		t.Errorf("add-fund without name = %v, want usage error", got)
	}
}

func TestInvalidChangesAreNotSaved(t *testing.T) {
	dir := setupWorkspace(t)

	if got := run(t, &setIncomeCmd{}, "--", "-5"); got != subcommands.ExitFailure {
		t.Errorf("set-income -5 = %v, want failure", got)
	}
	if got := run(t, &setIncomeCmd{}, "lots"); got != subcommands.ExitUsageError {
		t.Errorf("set-income lots = %v, want usage error", got)
	}
	if got := run(t, &setAssumptionsCmd{}, "-cagr", "high"); got != subcommands.ExitUsageError {
		t.Errorf("set-assumptions -cagr high = %v, want usage error", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "household.json")); !os.IsNotExist(err) {
		t.Errorf("the plan was saved: %v", err)
	}
}

func TestReset(t *testing.T) {
	dir := setupWorkspace(t)
	run(t, &setIncomeCmd{}, "1")
	if got := run(t, &resetCmd{}); got != subcommands.ExitSuccess {
		t.Fatalf("reset = %v, want success", got)
	}
	if got, want := loadPlan(t, dir).Income, forecast.DefaultPlan().Income; !got.Equal(want) {
		t.Errorf("income = %v, want %v", got, want)
	}
}

func TestExport(t *testing.T) {
	setupWorkspace(t)

	tests := []struct {
		format string
		want   string
	}{
		{"csv", "Key,Value\n"},
		{"json", `"label": "Jan 25"`},
		{"md", "Jan 25"},
		{"html", "<table>"},
	}
	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			out := "export." + tc.format
			if got := run(t, &exportCmd{}, "-format", tc.format, "-o", out); got != subcommands.ExitSuccess {
				t.Fatalf("export = %v, want success", got)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), tc.want) {
				t.Errorf("export -format %s does not contain %q:\n%s", tc.format, tc.want, data)
			}
		})
	}

	t.Run("xlsx", func(t *testing.T) {
		if got := run(t, &exportCmd{}, "-format", "xlsx", "-o", "export.xlsx"); got != subcommands.ExitSuccess {
			t.Fatalf("export = %v, want success", got)
		}
		f, err := excelize.OpenFile("export.xlsx")
		if err != nil {
			t.Fatalf("export.xlsx is not a workbook: %v", err)
		}
		defer f.Close()
		rows, err := f.GetRows(forecast.ProjectionsSheet)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) < 2 || rows[1][0] != "Jan 25" {
			t.Errorf("Projections sheet does not start in Jan 25: %v", rows)
		}
	})

	if got := run(t, &exportCmd{}, "-format", "pdf"); got != subcommands.ExitUsageError {
		t.Errorf("export -format pdf = %v, want usage error", got)
	}
}

func TestChart(t *testing.T) {
	setupWorkspace(t)

	if got := run(t, &chartCmd{}, "-kind", "ef"); got != subcommands.ExitSuccess {
		t.Fatalf("chart = %v, want success", got)
	}
	data, err := os.ReadFile("ef.png")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("ef.png is not a PNG image")
	}

	if got := run(t, &chartCmd{}, "-kind", "pie"); got != subcommands.ExitUsageError {
		t.Errorf("chart -kind pie = %v, want usage error", got)
	}
	if got := run(t, &chartCmd{}, "-format", "gif"); got != subcommands.ExitUsageError {
		t.Errorf("chart -format gif = %v, want usage error", got)
	}
}

func TestPlans(t *testing.T) {
	dir := setupWorkspace(t)
	run(t, &setIncomeCmd{}, "1000")

	s, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	names, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "household" {
		t.Errorf("plans = %v, want [household]", names)
	}
	if got := run(t, &plansCmd{}); got != subcommands.ExitSuccess {
		t.Errorf("plans = %v, want success", got)
	}
}

func TestCompletion(t *testing.T) {
	c := subcommands.NewCommander(flag.NewFlagSet("fcs", flag.ContinueOnError), "fcs")
	Register(c)
	root := Completion(c)

	for _, name := range []string{"show", "export", "chart", "set-goals", "topic"} {
		if _, ok := root.Sub[name]; !ok {
			t.Errorf("no completion for %q", name)
		}
	}
	if _, ok := root.Sub["set-goals"].Flags["short-term-months"]; !ok {
		t.Errorf("no completion for set-goals -short-term-months")
	}
	if root.Sub["topic"].Args == nil {
		t.Errorf("no completion for topic arguments")
	}
}

func TestTopicIndex(t *testing.T) {
	got := topicIndex([]docs.Topic{{Name: "plan", Summary: "the plan."}, {Name: "commands", Summary: "a tour."}})
	want := "plan      the plan.\ncommands  a tour.\n"
	if got != want {
		t.Errorf("topicIndex() = %q, want %q", got, want)
	}

	if got := run(t, &topicCmd{}, "-list"); got != subcommands.ExitSuccess {
		t.Errorf("topic -list = %v, want success", got)
	}
	if got := run(t, &topicCmd{}, "no-such-topic"); got != subcommands.ExitFailure {
		t.Errorf("topic no-such-topic = %v, want failure", got)
	}
}
