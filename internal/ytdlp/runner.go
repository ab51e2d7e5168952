package ytdlp

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/alessio/shellescape"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxOutput = 10 << 20
	DefaultWaitDelay = 5 * time.Second
)

// Outcome is what one yt-dlp invocation printed and how it exited.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes yt-dlp with a prepared argument vector.
type Runner interface {
	Run(ctx context.Context, args []string) (*Outcome, error)
}

// ExecRunner spawns the executable directly, never through a shell.
type ExecRunner struct {
	// Path to the yt-dlp executable. Defaults to "yt-dlp" (PATH lookup).
	Path string

	// Timeout kills the process after the given duration. Zero disables it.
	Timeout time.Duration

	// MaxOutput caps combined stdout+stderr capture in bytes.
	MaxOutput int64

	// StreamFunc receives every non-empty output line as it arrives.
	StreamFunc func(stream string, line string)
}

type streamKey struct{}

// WithStream attaches a per-request line callback. ExecRunner calls it in
// addition to its own StreamFunc.
func WithStream(ctx context.Context, fn func(stream string, line string)) context.Context {
	return context.WithValue(ctx, streamKey{}, fn)
}

func streamCallback(ctx context.Context, base func(string, string)) func(string, string) {
	fn, _ := ctx.Value(streamKey{}).(func(string, string))
	switch {
	case fn == nil:
		return base
	case base == nil:
		return fn
	}
	return func(stream, line string) {
		base(stream, line)
		fn(stream, line)
	}
}

func NewExecRunner(path string) *ExecRunner {
	return &ExecRunner{Path: path, MaxOutput: DefaultMaxOutput}
}

func (r *ExecRunner) PathOrDefault() string {
	if r.Path == "" {
		return "yt-dlp"
	}
	return r.Path
}

func (r *ExecRunner) Run(ctx context.Context, args []string) (*Outcome, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if r.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, r.Timeout)
		defer cancel()
	}

	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	limit := &captureLimit{max: maxOutput, onExceed: cancel}
	callback := streamCallback(ctx, r.StreamFunc)
	stdout := &streamWriter{stream: "stdout", callback: callback, limit: limit}
	stderr := &streamWriter{stream: "stderr", callback: callback, limit: limit}

	path := r.PathOrDefault()
	cmd := exec.CommandContext(runCtx, path, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = DefaultWaitDelay
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Debug().Str("op", "ytdlp/run").Msgf("Executing command: %s", shellescape.QuoteCommand(append([]string{path}, args...)))

	if err := cmd.Start(); err != nil {
		log.Error().Str("op", "ytdlp/run").Err(err).Msg("Error starting yt-dlp")
		return nil, &StartError{Path: path, Err: err}
	}
	err := cmd.Wait()
	stdout.flush()
	stderr.flush()

	outcome := &Outcome{Stdout: stdout.String(), Stderr: stderr.String()}
	if cmd.ProcessState != nil {
		outcome.ExitCode = cmd.ProcessState.ExitCode()
	}

	if limit.Exceeded() {
		return outcome, ErrOutputLimit
	}
	if err == nil {
		log.Debug().Str("op", "ytdlp/run").Msgf("yt-dlp exited cleanly (%d bytes of output)", len(outcome.Stdout)+len(outcome.Stderr))
		return outcome, nil
	}
	if ctx.Err() != nil {
		return outcome, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return outcome, ErrTimeout
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return outcome, &ExitError{ExitCode: ee.ExitCode(), Stdout: outcome.Stdout, Stderr: outcome.Stderr}
	}
	return outcome, err
}
