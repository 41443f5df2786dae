package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/mermatic/mermatic/pkg/errors"
)

// Overrides carries explicit CLI flag values. Nil fields mean the flag
// was not supplied and the lower-priority value is kept.
type Overrides struct {
	OutputDir  *string
	Format     *string
	Theme      *string
	Width      *int
	Height     *int
	Background *string
	Padding    *int
	Quality    *float64
	Scale      *float64
	Recursive  *bool
	Verbose    *bool

	// OutputPath is the literal output path supplied as the second
	// positional argument. When its extension names a known format it
	// outranks every other source.
	OutputPath string
}

// Resolve merges built-in defaults, an optional config file, and CLI
// overrides into the effective options for one invocation, then ensures
// the resolved output directory exists.
//
// A missing or unparseable config file is a warning, never fatal.
func Resolve(configFile string, ov Overrides, logger *log.Logger) (Options, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	opts := Defaults()
	opts.Logger = logger

	if configFile != "" {
		loadFile(&opts, configFile, logger)
	}

	applyOverrides(&opts, ov)

	if ov.OutputPath != "" {
		applyOutputPath(&opts, ov.OutputPath, logger)
	}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Options{}, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return Options{}, errors.Wrap(errors.ErrCodeInvalidPath, err,
			"creating output directory %s", opts.OutputDir)
	}

	return opts, nil
}

// loadFile overlays config file values onto opts. Keys absent from the
// file keep their current values; unrecognized keys are ignored. The
// format is chosen by extension: .toml is TOML, everything else JSON.
func loadFile(opts *Options, path string, logger *log.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Config file not readable, continuing without it", "path", path, "error", err)
		return
	}

	// Decode into a scratch copy so a failed parse cannot leave the
	// options half-applied.
	tmp := *opts
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &tmp)
	} else {
		err = json.Unmarshal(data, &tmp)
	}
	if err != nil {
		logger.Warn("Config file not parseable, continuing without it", "path", path, "error", err)
		return
	}
	*opts = tmp
}

// applyOverrides applies the CLI flag layer.
func applyOverrides(opts *Options, ov Overrides) {
	if ov.OutputDir != nil {
		opts.OutputDir = *ov.OutputDir
	}
	if ov.Format != nil {
		opts.Format = *ov.Format
	}
	if ov.Theme != nil {
		opts.Theme = *ov.Theme
	}
	if ov.Width != nil {
		opts.Width = *ov.Width
	}
	if ov.Height != nil {
		opts.Height = *ov.Height
	}
	if ov.Background != nil {
		opts.Background = *ov.Background
	}
	if ov.Padding != nil {
		opts.Padding = *ov.Padding
	}
	if ov.Quality != nil {
		opts.Quality = *ov.Quality
	}
	if ov.Scale != nil {
		opts.Scale = *ov.Scale
	}
	if ov.Recursive != nil {
		opts.Recursive = *ov.Recursive
	}
	if ov.Verbose != nil {
		opts.Verbose = *ov.Verbose
	}
}

// applyOutputPath applies the literal output path rule: a recognized
// extension overrides format, output directory, and output filename in
// one step; an unrecognized extension leaves all three untouched.
func applyOutputPath(opts *Options, outputPath string, logger *log.Logger) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(outputPath)), ".")
	if !ValidFormats[ext] {
		logger.Warn("Unrecognized output extension, keeping format",
			"path", outputPath, "format", opts.Format)
		return
	}
	opts.Format = ext
	opts.OutputFilename = filepath.Base(outputPath)
	opts.OutputDir = filepath.Dir(outputPath)
}
