// Package config builds the effective options for a render invocation.
//
// Options are layered from three sources in increasing priority:
//
//  1. Built-in defaults
//  2. An optional JSON or TOML config file
//  3. Explicit CLI flags
//
// A literal output path given as the second positional argument sits above
// all three: when its extension names a known format it overrides the
// format, output directory, and output filename in one step.
//
// The resolved Options value is immutable for the rest of the invocation.
// Per-file processing narrows it through ForFile, which returns a derived
// copy rather than mutating the shared record.
package config

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mermatic/mermatic/pkg/cache"
	"github.com/mermatic/mermatic/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, Session, and Service
// =============================================================================

const (
	// DefaultFormat is the default export format.
	DefaultFormat = FormatPNG

	// DefaultTheme is the default rendering library theme.
	DefaultTheme = ThemeDefault

	// DefaultWidth is the default page width in pixels.
	DefaultWidth = 800

	// DefaultHeight is the default page height in pixels.
	DefaultHeight = 600

	// DefaultBackground is the default page background color.
	DefaultBackground = "#ffffff"

	// DefaultPadding is the default page padding in pixels.
	DefaultPadding = 20

	// DefaultQuality is the default device pixel density multiplier,
	// doubled for higher-fidelity raster output.
	DefaultQuality = 2.0

	// DefaultScale is the default post-layout scale factor.
	DefaultScale = 1.0

	// DefaultOutputDir is the default output directory.
	DefaultOutputDir = "."
)

// Format constants for output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// ValidFormats is the set of supported export formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// Theme constants for the rendering library themes.
const (
	ThemeDefault = "default"
	ThemeForest  = "forest"
	ThemeDark    = "dark"
	ThemeNeutral = "neutral"
	ThemeBase    = "base"
)

// ValidThemes is the set of recognized theme names.
var ValidThemes = map[string]bool{
	ThemeDefault: true,
	ThemeForest:  true,
	ThemeDark:    true,
	ThemeNeutral: true,
	ThemeBase:    true,
}

// =============================================================================
// Options - Effective Render Configuration
// =============================================================================

// Options contains all configuration for one render invocation.
// This struct supports JSON serialization for config files and service
// requests, and TOML for config files.
type Options struct {
	OutputDir      string  `json:"outputDir,omitempty" toml:"outputDir"`
	OutputFilename string  `json:"outputFilename,omitempty" toml:"outputFilename"`
	Format         string  `json:"format,omitempty" toml:"format"`
	Theme          string  `json:"theme,omitempty" toml:"theme"`
	Width          int     `json:"width,omitempty" toml:"width"`
	Height         int     `json:"height,omitempty" toml:"height"`
	Background     string  `json:"background,omitempty" toml:"background"`
	Padding        int     `json:"padding,omitempty" toml:"padding"`
	Quality        float64 `json:"quality,omitempty" toml:"quality"`
	Scale          float64 `json:"scale,omitempty" toml:"scale"`
	Recursive      bool    `json:"recursive,omitempty" toml:"recursive"`
	Verbose        bool    `json:"verbose,omitempty" toml:"verbose"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-" toml:"-"`
}

// Defaults returns the built-in option values.
func Defaults() Options {
	return Options{
		OutputDir:  DefaultOutputDir,
		Format:     DefaultFormat,
		Theme:      DefaultTheme,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Background: DefaultBackground,
		Padding:    DefaultPadding,
		Quality:    DefaultQuality,
		Scale:      DefaultScale,
	}
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is one of the supported exports.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf)", format)
	}
	return nil
}

// ValidateTheme checks that a theme name is recognized.
func ValidateTheme(theme string) error {
	if !ValidThemes[theme] {
		return errors.New(errors.ErrCodeInvalidTheme,
			"invalid theme: %q (must be one of: default, forest, dark, neutral, base)", theme)
	}
	return nil
}

// NormalizeTheme returns the theme if it is recognized, otherwise the
// default theme. Unknown names are warned about through the logger, never
// rejected.
func NormalizeTheme(theme string, logger *log.Logger) string {
	if theme == "" {
		return DefaultTheme
	}
	if ValidThemes[theme] {
		return theme
	}
	if logger != nil {
		logger.Warn("Unknown theme, using default", "theme", theme)
	}
	return DefaultTheme
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults fills unset fields, normalizes the theme, and
// bounds-checks numeric values. The format is deliberately not validated
// here: an unsupported format must reach the export step so it is
// classified there, after the rendering environment has been released.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()

	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if err := errors.ValidateQuality(o.Quality); err != nil {
		return err
	}
	if err := errors.ValidateScale(o.Scale); err != nil {
		return err
	}

	o.Theme = NormalizeTheme(o.Theme, o.Logger)
	o.validated = true
	return nil
}

// SetDefaults fills zero-valued fields with the built-in defaults.
func (o *Options) SetDefaults() {
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	if o.Padding < 0 {
		o.Padding = DefaultPadding
	}
	if o.Quality <= 0 {
		o.Quality = DefaultQuality
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ForFile returns a copy of the options narrowed to one input file.
// The output directory is kept; the output filename, when not already
// fixed by an explicit output path, is derived from the input file's
// basename with the format as extension.
func (o Options) ForFile(inputPath string) Options {
	if o.OutputFilename == "" {
		base := filepath.Base(inputPath)
		o.OutputFilename = strings.TrimSuffix(base, filepath.Ext(base)) + "." + o.Format
	}
	return o
}

// OutputPath returns the full path the rendered artifact is written to.
func (o *Options) OutputPath() string {
	return filepath.Join(o.OutputDir, o.OutputFilename)
}

// ArtifactKeyOpts returns cache key options covering every field that
// affects the rendered bytes.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     o.Format,
		Theme:      o.Theme,
		Width:      o.Width,
		Height:     o.Height,
		Background: o.Background,
		Padding:    o.Padding,
		Quality:    o.Quality,
		Scale:      o.Scale,
	}
}
