package ytdlp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOutputLimit = errors.New("yt-dlp output exceeded the capture limit")
	ErrTimeout     = errors.New("yt-dlp did not finish before the timeout")
)

// StartError means the executable could not be spawned at all.
type StartError struct {
	Path string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Path, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// ExitError is a nonzero exit of yt-dlp.
type ExitError struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExitError) Error() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return fmt.Sprintf("exit code %d", e.ExitCode)
}

// Kind is the caller-facing failure category.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindToolMissing       Kind = "tool_missing"
	KindTranscoderMissing Kind = "transcoder_missing"
	KindProcessFailure    Kind = "process_failure"
	KindOutputLimit       Kind = "output_size_exceeded"
	KindTimeout           Kind = "timeout"
	KindCancelled         Kind = "cancelled"
)

// Error is a classified failure with a message fit for the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }
