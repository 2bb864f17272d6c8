package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/interpreter"
	"github.com/kritixilithos/roda/pkg/runtime"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "roda.yaml", `
debug: false
max_workers: 4
stream_capacity: 16
log_level: debug
log_format: json
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Debug || cfg.MaxWorkers != 4 || cfg.StreamCapacity != 16 {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if cfg.MaxDepth != 1000 {
		t.Fatalf("MaxDepth = %d, want default 1000", cfg.MaxDepth)
	}
	if !filepath.IsAbs(cfg.Path) {
		t.Fatalf("Path = %q, want absolute", cfg.Path)
	}
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeFile(t, "roda.toml", `
max_depth = 50
log_level = "error"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MaxDepth != 50 || cfg.LogLevel != "error" || !cfg.Debug {
		t.Fatalf("unexpected config %#v", cfg)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	for name, contents := range map[string]string{
		"roda.yaml": "workers: 2\n",
		"roda.toml": "workers = 2\n",
	} {
		if _, err := LoadConfig(writeFile(t, name, contents)); err == nil {
			t.Fatalf("expected %s with an unknown key to fail", name)
		}
	}
}

func TestLoadConfigValidates(t *testing.T) {
	cases := map[string]string{
		"negative workers": "max_workers: -1\n",
		"zero depth":       "max_depth: 0\n",
		"bad level":        "log_level: loud\n",
		"bad format":       "log_format: xml\n",
	}
	for name, contents := range cases {
		contents := contents // per-iteration copy (module targets go 1.21)
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeFile(t, "roda.yaml", contents)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("RODA_MAX_WORKERS", "3")
	t.Setenv("RODA_DEBUG", "false")
	t.Setenv("RODA_LOG_FORMAT", "json")
	cfg, err := LoadConfig(writeFile(t, "roda.yaml", "max_workers: 8\n"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MaxWorkers != 3 || cfg.Debug || cfg.LogFormat != "json" {
		t.Fatalf("environment overrides not applied: %#v", cfg)
	}
}

func TestLoadConfigSeesLaterEnvironmentChanges(t *testing.T) {
	path := writeFile(t, "roda.yaml", "stream_capacity: 2\n")
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	t.Setenv("RODA_STREAM_CAPACITY", "5")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StreamCapacity != 5 {
		t.Fatalf("StreamCapacity = %d, want 5 from the environment", cfg.StreamCapacity)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected an error for an explicit missing file")
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&Config{LogLevel: "info", LogFormat: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown", "stage", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("unexpected log output %q", out)
	}
}

const counterProgram = `
functions:
  - name: main
    parameters:
      - name: args
    varargs: true
    body:
      - commands:
          - type: for
            variables: [a]
            list: {type: Variable, name: args}
            body:
              - commands:
                  - type: call
                    name: push
                    arguments: [{type: Variable, name: a}]
          - type: call
            name: identity
`

func TestLoadProgramAndRun(t *testing.T) {
	prog, err := LoadProgram(writeFile(t, "prog.yaml", counterProgram))
	if err != nil {
		t.Fatalf("LoadProgram returned error: %v", err)
	}
	cfg := DefaultConfig()
	cfg.MaxWorkers = 2
	out := runtime.NewStream()
	opts := append(cfg.Options(), interpreter.WithStreams(runtime.NewEmptyStream(), out))
	interp := interpreter.New(opts...)
	defer interp.Shutdown()
	if err := interp.Interpret(prog, []string{"x", "y"}); err != nil {
		t.Fatalf("Interpret returned error: %v", interpreter.DescribeError(err))
	}
	out.Finish()
	got := out.ReadAll()
	if len(got) != 2 || runtime.Stringify(got[0]) != "x" || runtime.Stringify(got[1]) != "y" {
		t.Fatalf("unexpected output %v", got)
	}
}

func TestLoadStatementJSON(t *testing.T) {
	stmt, err := LoadStatement(writeFile(t, "stmt.json", `{"type": "call", "name": "push", "arguments": [1]}`))
	if err != nil {
		t.Fatalf("LoadStatement returned error: %v", err)
	}
	if len(stmt.Commands) != 1 || stmt.Commands[0].Type != ast.CommandNormal {
		t.Fatalf("unexpected statement %#v", stmt)
	}
	if _, err := LoadStatement(""); err == nil {
		t.Fatalf("expected an error for an empty path")
	}
}
