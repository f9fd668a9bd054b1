package browser

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// CommandResult carries everything a control command produced
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout and stderr joined, for marker scanning
func (r *CommandResult) Combined() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}

// Runner executes control tool invocations. The exec-backed implementation is
// the only one used in production; tests substitute scripted fakes.
type Runner interface {
	Run(args []string, timeout time.Duration) (*CommandResult, error)
}

// execRunner runs the control tool as a subprocess
type execRunner struct {
	command string
}

// NewRunner creates a Runner that invokes the given control tool binary
func NewRunner(command string) Runner {
	return &execRunner{command: command}
}

// Run executes the control tool with the given arguments and a wall-clock
// timeout. A non-zero exit is not an error here; callers inspect ExitCode and
// output markers to classify the outcome.
func (r *execRunner) Run(args []string, timeout time.Duration) (*CommandResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, context.DeadlineExceeded
		}
		// Binary missing, not executable, etc.
		return nil, err
	}

	return result, nil
}
