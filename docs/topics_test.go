package docs

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestParseIndex(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Topic
	}{
		{
			name: "plain items",
			src:  "# fcs\n\n* engine: how it works.\n* plan: the document.\n",
			want: []Topic{{"engine", "how it works."}, {"plan", "the document."}},
		},
		{
			name: "wrapped summary",
			src:  "- commands: a tour\n  of the commands.\n",
			want: []Topic{{"commands", "a tour of the commands."}},
		},
		{
			name: "items without a name are skipped",
			src:  "* just a note\n* two words: not a topic\n* plan: kept\n",
			want: []Topic{{"plan", "kept"}},
		},
		{
			name: "no list",
			src:  "Nothing to see: here.\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseIndex([]byte(tt.src))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseIndex() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	index, err := Index()
	if err != nil {
		t.Fatalf("Index() error: %v", err)
	}
	listed := map[string]bool{}
	for _, topic := range index {
		listed[topic.Name] = true
		if topic.Summary == "" {
			t.Errorf("topic %q has no summary in readme.md", topic.Name)
		}
		if _, err := Page(topic.Name); err != nil {
			t.Errorf("topic %q is listed but cannot be read: %v", topic.Name, err)
		}
	}

	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	for _, file := range files {
		name := strings.TrimSuffix(file, ".md")
		if name != Readme && !listed[name] {
			t.Errorf("page %q is not listed in readme.md", name)
		}
	}
}

func TestPages(t *testing.T) {
	index, err := Index()
	if err != nil {
		t.Fatal(err)
	}
	all, err := Pages("*")
	if err != nil {
		t.Fatalf("Pages(*) error: %v", err)
	}
	for _, topic := range index {
		page, _ := Page(topic.Name)
		if !strings.Contains(all, page) {
			t.Errorf("Pages(*) misses topic %q", topic.Name)
		}
	}

	if _, err := Pages(Readme, "engine"); err != nil {
		t.Errorf("Pages(readme, engine) error: %v", err)
	}
	for _, name := range []string{"nope", "../go", ""} {
		if _, err := Page(name); err == nil {
			t.Errorf("Page(%q) succeeded, want an error", name)
		}
	}
}

// Fenced blocks tagged with one of these info strings are executed, in order,
// by TestScenarios.
const (
	bashSetup    = "bash setup"    // starts a new scenario in a fresh directory
	bashRun      = "bash run"      // output is kept for the next console check
	bashCheck    = "bash check"    // must exit with 0
	consoleCheck = "console check" // expected output of the last bash run
)

// step is an executable fenced block of a page.
type step struct {
	kind   string
	script string
	pos    string // file:line, for messages
}

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	var bin string
	for _, file := range files {
		steps := readSteps(t, file)
		if len(steps) == 0 {
			continue
		}
		if bin == "" {
			bin = buildFcs(t)
		}
		t.Run(file, func(t *testing.T) {
			s := scenario{env: scenarioEnv(bin)}
			for _, st := range steps {
				s.play(t, st)
			}
		})
	}
}

// buildFcs compiles the fcs binary in a temporary directory and returns the
// directory holding it.
func buildFcs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := exec.Command("go", "build", "-o", filepath.Join(dir, "fcs"), "../fcs/").CombinedOutput()
	if err != nil {
		t.Fatalf("cannot build fcs: %v\n%s", err, out)
	}
	return dir
}

// scenarioEnv pins the clock and the store so that outputs are stable.
func scenarioEnv(bin string) []string {
	return append(os.Environ(),
		fmt.Sprintf("PATH=%s%c%s", bin, os.PathListSeparator, os.Getenv("PATH")),
		"XDG_CONFIG_HOME="+bin,
		"FORECAST_TESTING_NOW=2025-01-15",
		"FORECAST_STORE=file",
		"FORECAST_STORE_PATH=.forecast",
		"FORECAST_PLAN=household",
		"FORECAST_CURRENCY=INR",
		"FORECAST_LOG_LEVEL=warn",
	)
}

// readSteps returns the executable blocks of a markdown file.
func readSteps(t *testing.T, file string) []step {
	t.Helper()
	src, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	var steps []step
	root := goldmark.DefaultParser().Parse(text.NewReader(src))
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || fcb.Info == nil {
			return ast.WalkContinue, nil
		}
		kind := string(fcb.Info.Segment.Value(src))
		switch kind {
		case bashSetup, bashRun, bashCheck, consoleCheck:
		default:
			return ast.WalkContinue, nil
		}
		var script strings.Builder
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			script.Write(seg.Value(src))
		}
		line := bytes.Count(src[:fcb.Info.Segment.Start], []byte{'\n'}) + 1
		steps = append(steps, step{kind: kind, script: script.String(), pos: fmt.Sprintf("%s:%d", file, line)})
		return ast.WalkContinue, nil
	})
	return steps
}

// scenario is the state carried from one step to the next.
type scenario struct {
	env  []string
	dir  string
	last string // output of the last bash run
}

func (s *scenario) play(t *testing.T, st step) {
	t.Helper()
	if st.kind == consoleCheck {
		want := strings.TrimSpace(st.script)
		got := strings.ReplaceAll(strings.TrimSpace(s.last), "\t", "        ")
		if got != want {
			t.Errorf("%s: output mismatch:\ngot:\n\n%s\n\nwant:\n\n%s\n\ngot :%q\nwant:%q", st.pos, got, want, got, want)
		}
		return
	}
	if st.kind == bashSetup || s.dir == "" {
		s.dir = t.TempDir()
	}

	c := exec.Command("bash", "-c", "set -e; "+st.script)
	c.Dir = s.dir
	c.Env = s.env
	out, err := c.CombinedOutput()
	if st.kind == bashRun {
		s.last = string(out)
	}
	if err == nil {
		return
	}
	if st.kind == bashCheck {
		t.Errorf("%s: check failed: %v\n%s", st.pos, err, out)
		return
	}
	t.Fatalf("%s: %s failed: %v\n%s", st.pos, st.kind, err, out)
}
