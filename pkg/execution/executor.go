/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: executor.go
Description: Process harness for the Akaylee file fuzzer. Rewrites a fixed scratch file with the
mutated buffer, runs the target once per round with its output discarded, and reports how
the child terminated. The scratch file and null sink are opened once and reused every round.
*/

package execution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kleascm/akaylee-filefuzz/pkg/interfaces"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// ErrSpawn marks a round in which the target process could not be started
var ErrSpawn = errors.New("failed to spawn target")

// ProcessExecutor implements the Executor interface on top of os/exec
type ProcessExecutor struct {
	targetPath  string
	scratchPath string
	timeout     time.Duration

	scratch *os.File // rewritten in place every round
	null    *os.File // shared stdout/stderr sink for every child

	logger *logrus.Logger
}

// NewProcessExecutor resolves the target and opens the scratch file and null sink.
// A target that cannot be resolved to an executable fails here, before any round runs.
func NewProcessExecutor(config *interfaces.RunConfig, logger *logrus.Logger) (*ProcessExecutor, error) {
	if config.TargetPath == "" {
		return nil, fmt.Errorf("target path is required")
	}
	if config.ScratchPath == "" {
		return nil, fmt.Errorf("scratch path is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	target, err := exec.LookPath(config.TargetPath)
	if err != nil {
		return nil, fmt.Errorf("target is not launchable: %w", err)
	}

	null, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open null sink: %w", err)
	}

	scratch, err := os.OpenFile(config.ScratchPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		null.Close()
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}

	return &ProcessExecutor{
		targetPath:  target,
		scratchPath: config.ScratchPath,
		timeout:     config.Timeout,
		scratch:     scratch,
		null:        null,
		logger:      logger,
	}, nil
}

// TargetPath returns the resolved target program
func (e *ProcessExecutor) TargetPath() string {
	return e.targetPath
}

// ScratchPath returns the path handed to the target every round
func (e *ProcessExecutor) ScratchPath() string {
	return e.scratchPath
}

// WriteScratch replaces the scratch file contents with data
func (e *ProcessExecutor) WriteScratch(data []byte) error {
	if _, err := e.scratch.WriteAt(data, 0); err != nil {
		return fmt.Errorf("failed to write scratch file: %w", err)
	}
	// a shorter buffer must not inherit the tail of a longer one
	if err := e.scratch.Truncate(int64(len(data))); err != nil {
		return fmt.Errorf("failed to truncate scratch file: %w", err)
	}
	return nil
}

// Execute writes data to the scratch file, runs the target on it and blocks until the
// child exits or is killed. Errors are fatal for the run; a crashing target is not an error.
func (e *ProcessExecutor) Execute(ctx context.Context, data []byte) (*interfaces.Termination, error) {
	if err := e.WriteScratch(data); err != nil {
		return nil, err
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, e.targetPath, e.scratchPath)
	cmd.Stdout = e.null
	cmd.Stderr = e.null

	startTime := time.Now()
	runErr := cmd.Run()
	duration := time.Since(startTime)

	// ProcessState is only nil when the child never started
	if cmd.ProcessState == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w %s: %v", ErrSpawn, e.targetPath, runErr)
	}

	term := &interfaces.Termination{
		Duration: duration,
		TimedOut: e.timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded),
	}

	if status, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok {
		switch {
		case status.Signaled():
			term.Signaled = true
			term.Signal = status.Signal()
		case status.Exited():
			term.Exited = true
			term.ExitCode = status.ExitStatus()
		}
	} else {
		term.Exited = true
		term.ExitCode = cmd.ProcessState.ExitCode()
	}

	if term.TimedOut {
		e.logger.WithFields(logrus.Fields{
			"timeout":  e.timeout,
			"duration": duration,
		}).Debug("Target killed by watchdog")
	}

	return term, nil
}

// Close releases the scratch file and null sink
func (e *ProcessExecutor) Close() error {
	var firstErr error
	if err := e.scratch.Close(); err != nil {
		firstErr = fmt.Errorf("failed to close scratch file: %w", err)
	}
	if err := e.null.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close null sink: %w", err)
	}
	return firstErr
}

// SignalName returns the conventional name of sig, e.g. SIGSEGV
func SignalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return fmt.Sprintf("signal %d", int(sig))
}

// Describe renders a termination for logs
func Describe(term *interfaces.Termination) string {
	switch {
	case term == nil:
		return "unknown"
	case term.TimedOut:
		return "timeout"
	case term.Signaled:
		return SignalName(term.Signal)
	case term.Exited:
		return fmt.Sprintf("exit %d", term.ExitCode)
	default:
		return "unknown"
	}
}
