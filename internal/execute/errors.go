// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package execute

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies an execution failure.
type Kind int

const (
	// KindToolNotAvailable means the executable could not be spawned.
	KindToolNotAvailable Kind = iota + 1
	// KindConversionFailed means the tool ran and exited non-zero.
	KindConversionFailed
	// KindTimeout means the tool was killed after exceeding the time limit.
	KindTimeout
	// KindCanceled means the caller's context ended before the tool exited.
	KindCanceled
)

// Sentinels for errors.Is matching against *Error.
var (
	ErrToolNotAvailable = errors.New("tool not available")
	ErrConversionFailed = errors.New("conversion failed")
	ErrTimeout          = errors.New("conversion timed out")
	ErrCanceled         = errors.New("conversion canceled")
)

func (k Kind) sentinel() error {
	switch k {
	case KindToolNotAvailable:
		return ErrToolNotAvailable
	case KindConversionFailed:
		return ErrConversionFailed
	case KindTimeout:
		return ErrTimeout
	case KindCanceled:
		return ErrCanceled
	default:
		return nil
	}
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error reports a failed tool invocation.
type Error struct {
	Kind Kind

	// Tool is the executable that was invoked.
	Tool string

	// ExitCode is set for KindConversionFailed.
	ExitCode int

	// Stderr is the diagnostic output captured before the process ended.
	Stderr string

	// Timeout is the limit that was exceeded, for KindTimeout.
	Timeout time.Duration

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindToolNotAvailable:
		msg := fmt.Sprintf("%s is not installed or not in PATH", e.Tool)
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	case KindConversionFailed:
		msg := fmt.Sprintf("conversion failed with code %d", e.ExitCode)
		if s := strings.TrimSpace(e.Stderr); s != "" {
			msg += ": " + s
		}
		return msg
	case KindTimeout:
		return fmt.Sprintf("%s did not finish within %s and was stopped", e.Tool, e.Timeout)
	case KindCanceled:
		return fmt.Sprintf("%s was canceled: %v", e.Tool, e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	}
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func (e *Error) Unwrap() error { return e.Err }
