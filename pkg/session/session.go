// Package session implements the interactive render loop.
//
// A session is a single-threaded, blocking state machine driven by human
// input, moving through three states:
//
//   - Collecting: read diagram lines until the END token
//   - Configuring: prompt for format, output path, and theme
//   - Rendering: render the collected text once through the same pipeline
//     as batch processing, via a throwaway temp file
//
// Each prompt blocks until answered; there is exactly one render in flight.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mermatic/mermatic/pkg/config"
	"github.com/mermatic/mermatic/pkg/errors"
	"github.com/mermatic/mermatic/pkg/pipeline"
	"github.com/mermatic/mermatic/pkg/source"
)

// endToken terminates the collecting state. Compared after trimming
// surrounding whitespace, case-sensitive.
const endToken = "END"

// Session holds one interactive render conversation.
type Session struct {
	Runner *pipeline.Runner
	Opts   config.Options
	Logger *log.Logger

	// TempDir is where the throwaway diagram file is written.
	// Defaults to the system temp directory.
	TempDir string

	in  *bufio.Scanner
	out io.Writer
}

// New creates a session reading prompts' answers from in and writing
// prompts and results to out.
func New(in io.Reader, out io.Writer, runner *pipeline.Runner, opts config.Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Session{
		Runner:  runner,
		Opts:    opts,
		Logger:  logger,
		TempDir: os.TempDir(),
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run drives the session through its three states. An empty diagram aborts
// the session without a render; that is not an error.
func (s *Session) Run(ctx context.Context) error {
	text, ok := s.collect()
	if !ok {
		fmt.Fprintln(s.out, "No diagram entered, nothing to render.")
		return nil
	}

	opts, err := s.configure()
	if err != nil {
		return err
	}

	return s.render(ctx, text, opts)
}

// collect reads diagram lines until the END token. The second return value
// is false when the accumulated text is empty.
func (s *Session) collect() (string, bool) {
	fmt.Fprintf(s.out, "Enter your diagram, then a line with %s to finish:\n", endToken)

	var b strings.Builder
	for s.in.Scan() {
		line := s.in.Text()
		if strings.TrimSpace(line) == endToken {
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// configure prompts for format, output path, and theme, each falling back
// to a typed default on empty input, and returns a derived options copy.
func (s *Session) configure() (config.Options, error) {
	opts := s.Opts

	format := s.prompt("Format (svg/png/pdf)", opts.Format)
	opts.Format = strings.ToLower(format)

	defaultOut := "diagram." + opts.Format
	outPath := s.prompt("Output file", defaultOut)
	dir, file := filepath.Split(outPath)
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return config.Options{}, errors.Wrap(errors.ErrCodeInvalidPath, err,
				"creating output directory %s", dir)
		}
		opts.OutputDir = filepath.Clean(dir)
	}
	opts.OutputFilename = file

	opts.Theme = config.NormalizeTheme(s.prompt("Theme", opts.Theme), s.Logger)

	return opts, nil
}

// render writes the collected text to a throwaway file, renders it once
// through the batch path, and removes the file afterwards, on success and
// on failure.
func (s *Session) render(ctx context.Context, text string, opts config.Options) error {
	tmp := filepath.Join(s.TempDir, "mermatic-"+uuid.NewString()+source.Extension)
	if err := os.WriteFile(tmp, []byte(text), 0600); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "writing temp diagram")
	}
	defer os.Remove(tmp)

	outPath, cached, err := s.Runner.RenderFile(ctx, tmp, opts)
	if err != nil {
		fmt.Fprintf(s.out, "Render failed: %s\n", errors.UserMessage(err))
		return err
	}

	if cached {
		fmt.Fprintf(s.out, "Rendered %s (cached)\n", outPath)
	} else {
		fmt.Fprintf(s.out, "Rendered %s\n", outPath)
	}
	return nil
}

// prompt asks for one value, returning def when the answer is empty or
// whitespace only.
func (s *Session) prompt(label, def string) string {
	fmt.Fprintf(s.out, "%s [%s]: ", label, def)
	if !s.in.Scan() {
		return def
	}
	answer := strings.TrimSpace(s.in.Text())
	if answer == "" {
		return def
	}
	return answer
}
