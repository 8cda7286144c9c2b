package engine

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/michaelmacinnis/cellar/internal/agent/agenttest"
	"github.com/michaelmacinnis/cellar/internal/system/config"
	"github.com/michaelmacinnis/cellar/internal/type/event"
	"github.com/michaelmacinnis/cellar/internal/ui"
)

type fake struct {
	*agenttest.T
}

func (f fake) Close() error {
	f.T.Close()

	return nil
}

type harness struct {
	agent  *agenttest.T
	dialed []string
	out    bytes.Buffer
}

func (h *harness) dial(_ context.Context, url string) (Agent, error) {
	h.dialed = append(h.dialed, url)

	return fake{h.agent}, nil
}

func setup(t *testing.T) (*harness, *config.Config) {
	t.Helper()

	h := &harness{agent: agenttest.New()}
	t.Cleanup(h.agent.Close)

	cfg := config.Default()
	cfg.SettleDelay = 0
	cfg.Platforms = []config.Platform{
		{ID: "Console", URL: "ws://console"},
		{ID: "DotNetCore", URL: "ws://core"},
	}

	return h, cfg
}

func (h *harness) engine(cfg *config.Config, input string) *T {
	return New(cfg, h.dial, ui.NewLines(strings.NewReader(input)), ui.NewRenderer(&h.out, 80))
}

func document(t *testing.T, platforms string) string {
	t.Helper()

	src := "---\nplatforms: [" + platforms + "]\n---\n\n" +
		"```csharp\nvar x = 1;\n```\n\n" +
		"```csharp\nthrow null;\n```\n\n" +
		"```csharp\nx\n```\n"

	path := filepath.Join(t.TempDir(), "tour.workbook")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestWorkbookMissing(t *testing.T) {
	h, cfg := setup(t)

	code, err := h.engine(cfg, "").Workbook(context.Background(), filepath.Join(t.TempDir(), "missing.workbook"))
	if code != 1 || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Workbook() = %d, %v; want 1, fs.ErrNotExist", code, err)
	}

	if len(h.dialed) != 0 || len(h.agent.Calls()) != 0 {
		t.Fatalf("dialed %v and made calls %v", h.dialed, h.agent.Calls())
	}
}

func TestWorkbookNoPlatform(t *testing.T) {
	h, cfg := setup(t)

	code, err := h.engine(cfg, "").Workbook(context.Background(), document(t, "iOS"))
	if code != 1 || !errors.Is(err, ErrNoPlatform) {
		t.Fatalf("Workbook() = %d, %v; want 1, ErrNoPlatform", code, err)
	}

	if len(h.dialed) != 0 {
		t.Fatalf("dialed %v", h.dialed)
	}
}

func TestWorkbook(t *testing.T) {
	h, cfg := setup(t)
	h.agent.Script = func(n int, id event.CellID, source string) []event.T {
		if n == 1 {
			return []event.T{
				event.Started{ID: id},
				event.Finished{ID: id, Status: event.EvaluationException},
			}
		}

		return agenttest.Succeed(n, id, source)
	}

	code, err := h.engine(cfg, "").Workbook(context.Background(), document(t, "iOS, DotNetCore"))
	if err != nil {
		t.Fatal(err)
	}

	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	if len(h.dialed) != 1 || h.dialed[0] != "ws://core" {
		t.Fatalf("dialed %v, want ws://core", h.dialed)
	}

	if n := h.agent.Count(agenttest.Evaluate); n != 2 {
		t.Fatalf("evaluated %d cells, want 2", n)
	}

	want := "csharp> var x = 1;\n" +
		"csharp> throw null;\n" +
		"Error: An exception was thrown while evaluating cell\n"
	if h.out.String() != want {
		t.Fatalf("rendered %q, want %q", h.out.String(), want)
	}
}

func TestRepl(t *testing.T) {
	h, cfg := setup(t)
	h.agent.Lifecycle = []event.Kind{"AgentConnected"}
	h.agent.Script = func(_ int, id event.CellID, source string) []event.T {
		return []event.T{
			event.Started{ID: id},
			event.Output{ID: id, FD: 1, Value: strings.TrimSpace(source) + "\n"},
			event.Finished{ID: id, Status: event.Success},
		}
	}

	code, err := h.engine(cfg, "Console.WriteLine(\n1)\n2\n").Repl(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	if len(h.dialed) != 1 || h.dialed[0] != "ws://console" {
		t.Fatalf("dialed %v, want ws://console", h.dialed)
	}

	want := "AgentConnected\nConsole.WriteLine(\n1)\n2\n"
	if h.out.String() != want {
		t.Fatalf("rendered %q, want %q", h.out.String(), want)
	}
}

func TestCommand(t *testing.T) {
	h, cfg := setup(t)
	h.agent.Script = func(_ int, id event.CellID, _ string) []event.T {
		return []event.T{event.Finished{ID: id, Status: event.Interrupted}}
	}

	code, err := h.engine(cfg, "").Command(context.Background(), "while (true) {}")
	if err != nil {
		t.Fatal(err)
	}

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	calls := h.agent.Calls()
	if len(calls) == 0 || calls[0].Method != agenttest.Initialize || calls[0].Text != cfg.Language {
		t.Fatalf("first call %+v, want %s for %s", calls, agenttest.Initialize, cfg.Language)
	}
}

func TestNoPlatform(t *testing.T) {
	h, cfg := setup(t)
	cfg.Platforms = nil

	e := h.engine(cfg, "")

	if code, err := e.Repl(context.Background()); code != 1 || !errors.Is(err, ErrNoPlatform) {
		t.Fatalf("Repl() = %d, %v; want 1, ErrNoPlatform", code, err)
	}

	if code, err := e.Command(context.Background(), "1"); code != 1 || !errors.Is(err, ErrNoPlatform) {
		t.Fatalf("Command() = %d, %v; want 1, ErrNoPlatform", code, err)
	}
}

func TestDialError(t *testing.T) {
	_, cfg := setup(t)
	refused := errors.New("connection refused")

	dial := func(context.Context, string) (Agent, error) {
		return nil, refused
	}

	e := New(cfg, dial, ui.NewLines(strings.NewReader("")), ui.NewRenderer(&bytes.Buffer{}, 80))

	if code, err := e.Repl(context.Background()); code != 1 || !errors.Is(err, refused) {
		t.Fatalf("Repl() = %d, %v; want 1, %v", code, err, refused)
	}
}

func TestFatal(t *testing.T) {
	h, cfg := setup(t)
	lost := errors.New("agent went away")
	h.agent.Errors = map[string]error{agenttest.Initialize: lost}

	code, err := h.engine(cfg, "1\n").Repl(context.Background())
	if code != 1 || !errors.Is(err, lost) {
		t.Fatalf("Repl() = %d, %v; want 1, %v", code, err, lost)
	}
}
