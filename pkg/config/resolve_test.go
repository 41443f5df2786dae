package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestResolveDefaultsOnly(t *testing.T) {
	opts, err := Resolve("", Overrides{}, testLogger())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	want := Defaults()
	if opts.Format != want.Format || opts.Theme != want.Theme {
		t.Errorf("Resolve() = %+v, want defaults", opts)
	}
	if opts.Width != want.Width || opts.Height != want.Height {
		t.Errorf("dimensions = %dx%d, want %dx%d", opts.Width, opts.Height, want.Width, want.Height)
	}
}

func TestResolvePriority(t *testing.T) {
	// Config file overrides defaults; CLI flags override both.
	path := writeConfig(t, "config.json", `{"theme": "forest", "width": 1024, "padding": 0}`)

	theme := "dark"
	opts, err := Resolve(path, Overrides{Theme: &theme}, testLogger())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	if opts.Theme != "dark" {
		t.Errorf("Theme = %q, want dark (flag wins over file)", opts.Theme)
	}
	if opts.Width != 1024 {
		t.Errorf("Width = %d, want 1024 (file wins over default)", opts.Width)
	}
	if opts.Padding != 0 {
		t.Errorf("Padding = %d, want 0 (explicit zero from file kept)", opts.Padding)
	}
	if opts.Height != DefaultHeight {
		t.Errorf("Height = %d, want default %d", opts.Height, DefaultHeight)
	}
}

func TestResolveTOMLConfig(t *testing.T) {
	path := writeConfig(t, "config.toml", "theme = \"neutral\"\nquality = 3.0\n")

	opts, err := Resolve(path, Overrides{}, testLogger())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	if opts.Theme != "neutral" {
		t.Errorf("Theme = %q, want neutral", opts.Theme)
	}
	if opts.Quality != 3.0 {
		t.Errorf("Quality = %g, want 3", opts.Quality)
	}
}

func TestResolveMissingConfigIsNotFatal(t *testing.T) {
	opts, err := Resolve(filepath.Join(t.TempDir(), "nope.json"), Overrides{}, testLogger())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if opts.Format != DefaultFormat {
		t.Errorf("Format = %q, want default after missing config", opts.Format)
	}
}

func TestResolveUnparseableConfigIsNotFatal(t *testing.T) {
	path := writeConfig(t, "config.json", `{"theme": "forest", `)

	opts, err := Resolve(path, Overrides{}, testLogger())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if opts.Theme != DefaultTheme {
		t.Errorf("Theme = %q, want default after bad config", opts.Theme)
	}
}

func TestResolveUnknownConfigKeysIgnored(t *testing.T) {
	path := writeConfig(t, "config.json", `{"theme": "dark", "futureKey": [1, 2, 3]}`)

	opts, err := Resolve(path, Overrides{}, testLogger())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if opts.Theme != "dark" {
		t.Errorf("Theme = %q, want dark despite unknown keys", opts.Theme)
	}
}

func TestResolveOutputPath(t *testing.T) {
	t.Run("recognized extension overrides format", func(t *testing.T) {
		dir := t.TempDir()
		format := "png"
		opts, err := Resolve("", Overrides{
			Format:     &format,
			OutputPath: filepath.Join(dir, "out", "chart.svg"),
		}, testLogger())
		if err != nil {
			t.Fatalf("Resolve error: %v", err)
		}

		if opts.Format != "svg" {
			t.Errorf("Format = %q, want svg (output path wins over -f flag)", opts.Format)
		}
		if opts.OutputFilename != "chart.svg" {
			t.Errorf("OutputFilename = %q, want chart.svg", opts.OutputFilename)
		}
		if opts.OutputDir != filepath.Join(dir, "out") {
			t.Errorf("OutputDir = %q, want %q", opts.OutputDir, filepath.Join(dir, "out"))
		}
	})

	t.Run("unrecognized extension is ignored with prior format kept", func(t *testing.T) {
		format := "svg"
		opts, err := Resolve("", Overrides{
			Format:     &format,
			OutputPath: "chart.bmp",
		}, testLogger())
		if err != nil {
			t.Fatalf("Resolve error: %v", err)
		}

		if opts.Format != "svg" {
			t.Errorf("Format = %q, want svg kept", opts.Format)
		}
		if opts.OutputFilename != "" {
			t.Errorf("OutputFilename = %q, want empty", opts.OutputFilename)
		}
	})
}

func TestResolveCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	_, err := Resolve("", Overrides{OutputDir: &dir}, testLogger())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("output dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("output path is not a directory")
	}
}

func TestResolveNormalizesTheme(t *testing.T) {
	theme := "solarized"
	opts, err := Resolve("", Overrides{Theme: &theme}, testLogger())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if opts.Theme != DefaultTheme {
		t.Errorf("Theme = %q, want %q", opts.Theme, DefaultTheme)
	}
}

func TestResolveRecursiveAndVerboseFlags(t *testing.T) {
	recursive := true
	verbose := true
	opts, err := Resolve("", Overrides{Recursive: &recursive, Verbose: &verbose}, testLogger())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !opts.Recursive {
		t.Error("Recursive should be true")
	}
	if !opts.Verbose {
		t.Error("Verbose should be true")
	}
}
