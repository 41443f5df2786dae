package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mermatic/mermatic/pkg/config"
	apperrors "github.com/mermatic/mermatic/pkg/errors"
	"github.com/mermatic/mermatic/pkg/pipeline"
)

func parseRootFlags(t *testing.T, args ...string) (*cobra.Command, *rootOpts) {
	t.Helper()
	o := &rootOpts{}
	cmd := &cobra.Command{Use: "test"}
	registerRootFlags(cmd, o)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("Parse(%v) error: %v", args, err)
	}
	return cmd, o
}

func TestOverridesOnlyChangedFlags(t *testing.T) {
	cmd, o := parseRootFlags(t, "--format", "svg", "--width", "1024")

	ov := o.overrides(cmd, nil)

	if ov.Format == nil || *ov.Format != "svg" {
		t.Errorf("Format override = %v, want svg", ov.Format)
	}
	if ov.Width == nil || *ov.Width != 1024 {
		t.Errorf("Width override = %v, want 1024", ov.Width)
	}

	// Untouched flags must not override config-file values.
	if ov.Theme != nil {
		t.Errorf("Theme override = %v, want nil", ov.Theme)
	}
	if ov.Height != nil {
		t.Errorf("Height override = %v, want nil", ov.Height)
	}
	if ov.Background != nil {
		t.Errorf("Background override = %v, want nil", ov.Background)
	}
	if ov.OutputDir != nil {
		t.Errorf("OutputDir override = %v, want nil", ov.OutputDir)
	}
}

func TestOverridesEmpty(t *testing.T) {
	cmd, o := parseRootFlags(t)

	ov := o.overrides(cmd, []string{"input.mermaid"})

	if ov != (config.Overrides{}) {
		t.Errorf("overrides with no flags = %+v, want zero value", ov)
	}
}

func TestOverridesAllFlags(t *testing.T) {
	cmd, o := parseRootFlags(t,
		"-o", "out",
		"-f", "pdf",
		"-t", "dark",
		"-w", "640",
		"-H", "480",
		"-b", "transparent",
		"-p", "8",
		"-q", "3.0",
		"-s", "1.5",
		"-r",
	)

	ov := o.overrides(cmd, nil)

	if ov.OutputDir == nil || *ov.OutputDir != "out" {
		t.Errorf("OutputDir = %v, want out", ov.OutputDir)
	}
	if ov.Format == nil || *ov.Format != "pdf" {
		t.Errorf("Format = %v, want pdf", ov.Format)
	}
	if ov.Theme == nil || *ov.Theme != "dark" {
		t.Errorf("Theme = %v, want dark", ov.Theme)
	}
	if ov.Width == nil || *ov.Width != 640 {
		t.Errorf("Width = %v, want 640", ov.Width)
	}
	if ov.Height == nil || *ov.Height != 480 {
		t.Errorf("Height = %v, want 480", ov.Height)
	}
	if ov.Background == nil || *ov.Background != "transparent" {
		t.Errorf("Background = %v, want transparent", ov.Background)
	}
	if ov.Padding == nil || *ov.Padding != 8 {
		t.Errorf("Padding = %v, want 8", ov.Padding)
	}
	if ov.Quality == nil || *ov.Quality != 3.0 {
		t.Errorf("Quality = %v, want 3.0", ov.Quality)
	}
	if ov.Scale == nil || *ov.Scale != 1.5 {
		t.Errorf("Scale = %v, want 1.5", ov.Scale)
	}
	if ov.Recursive == nil || !*ov.Recursive {
		t.Errorf("Recursive = %v, want true", ov.Recursive)
	}
}

func TestOverridesPositionalOutputPath(t *testing.T) {
	cmd, o := parseRootFlags(t)

	ov := o.overrides(cmd, []string{"flow.mermaid", "out/chart.svg"})

	if ov.OutputPath != "out/chart.svg" {
		t.Errorf("OutputPath = %q, want out/chart.svg", ov.OutputPath)
	}
}

func TestRootCommandStructure(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	if root.Use != "mermatic [input] [output]" {
		t.Errorf("Use = %q", root.Use)
	}
	if !root.SilenceUsage || !root.SilenceErrors {
		t.Error("root command should silence usage and errors")
	}

	want := map[string]bool{"template": false, "serve": false, "cache": false, "completion": false}
	for _, sub := range root.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

// markerRenderer fails any diagram whose text contains the marker and
// renders everything else.
type markerRenderer struct {
	marker string
}

func (r *markerRenderer) Render(ctx context.Context, text string, opts config.Options) ([]byte, error) {
	if strings.Contains(text, r.marker) {
		return nil, apperrors.New(apperrors.ErrCodeSyntax, "diagram syntax error: unexpected token")
	}
	return []byte("artifact"), nil
}

func TestRunBatchContinuesPastFailures(t *testing.T) {
	inDir := t.TempDir()
	files := map[string]string{
		"first.mermaid":  "graph TD\n    A --> B\n",
		"broken.mermaid": "graph TD\n    A --> BOOM\n",
		"last.mermaid":   "graph TD\n    B --> C\n",
	}
	for name, text := range files {
		if err := os.WriteFile(filepath.Join(inDir, name), []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}

	opts := config.Defaults()
	opts.OutputDir = t.TempDir()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	runner := pipeline.NewRunner(&markerRenderer{marker: "BOOM"}, nil, log.New(io.Discard))
	defer runner.Close()

	c := New(io.Discard, LogInfo)
	ctx := withLogger(context.Background(), c.Logger)

	// One file fails; the batch must keep going and report success overall.
	if err := c.runBatch(ctx, inDir, opts, runner); err != nil {
		t.Fatalf("runBatch error: %v", err)
	}

	for _, name := range []string{"first.png", "last.png"} {
		if _, err := os.Stat(filepath.Join(opts.OutputDir, name)); err != nil {
			t.Errorf("artifact %s missing after batch with one failure: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(opts.OutputDir, "broken.png")); !os.IsNotExist(err) {
		t.Error("failed diagram should not produce an artifact")
	}
}

func TestRunBatchSkipsForeignFiles(t *testing.T) {
	inDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(inDir, "chart.mermaid"), []byte("graph TD\n"), 0644); err != nil {
		t.Fatal(err)
	}

	opts := config.Defaults()
	opts.OutputDir = t.TempDir()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	runner := pipeline.NewRunner(&markerRenderer{marker: "never"}, nil, log.New(io.Discard))
	defer runner.Close()

	c := New(io.Discard, LogInfo)
	ctx := withLogger(context.Background(), c.Logger)

	// A single foreign file named directly is loaded, skipped, and the
	// invocation still succeeds.
	foreign := filepath.Join(inDir, "notes.txt")
	if err := os.WriteFile(foreign, []byte("not a diagram"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.runBatch(ctx, foreign, opts, runner); err != nil {
		t.Fatalf("runBatch on foreign file error: %v", err)
	}

	entries, err := os.ReadDir(opts.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("skipped file should produce no artifacts, found %d", len(entries))
	}
}

func TestRunRootNoInput(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{})

	err := root.Execute()
	if err == nil {
		t.Fatal("expected error for no input")
	}
}
