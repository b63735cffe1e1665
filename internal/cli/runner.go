package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	apierrors "github.com/zhengjr9/cli-agent/internal/errors"
)

// Options configures a Runner.
type Options struct {
	// Command is the executable name or path, resolved through PATH.
	Command string
	// Args are passed to every invocation. Usually empty.
	Args []string
	// Dir is the working directory of the process; empty inherits ours.
	Dir string
	// Env entries ("KEY=VALUE") appended to the inherited environment.
	Env []string
	// Timeout bounds one run. Zero means no limit beyond the caller's context.
	Timeout time.Duration
}

// Runner executes the external CLI once per prompt.
type Runner struct {
	opts Options
	name string
}

// NewRunner constructs a Runner.
func NewRunner(opts Options) *Runner {
	return &Runner{opts: opts, name: filepath.Base(opts.Command)}
}

// Name is the base name of the configured executable, used in error messages.
func (r *Runner) Name() string {
	return r.name
}

// Available reports whether the executable can be resolved.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.opts.Command)
	return err == nil
}

// Run starts the CLI, writes prompt to its stdin, closes stdin and waits for
// the process to exit. It returns the trimmed stdout on a zero exit status.
//
// A process that cannot be started yields *errors.SpawnError; a non-zero
// exit yields *errors.ProcessError carrying the captured stderr.
func (r *Runner) Run(ctx context.Context, prompt string) (string, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.opts.Command, r.opts.Args...)
	cmd.Dir = r.opts.Dir
	if len(r.opts.Env) > 0 {
		cmd.Env = append(os.Environ(), r.opts.Env...)
	}

	// exec copies stdin from the reader and closes the pipe once it is drained.
	var stdout, stderr bytes.Buffer
	cmd.Stdin = strings.NewReader(prompt)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return "", &apierrors.SpawnError{Command: r.name, Err: err}
	}
	slog.Debug("cli started", "command", r.name, "pid", cmd.Process.Pid, "prompt_bytes", len(prompt))

	err := cmd.Wait()
	slog.Debug("cli exited", "command", r.name, "duration", time.Since(start).String(), "stdout_bytes", stdout.Len())
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderrText := stderr.String()
			if ctxErr := ctx.Err(); ctxErr != nil && stderrText == "" {
				stderrText = ctxErr.Error()
			}
			return "", &apierrors.ProcessError{
				Command:  r.name,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderrText,
			}
		}
		// I/O copy failures after a clean start.
		return "", &apierrors.ProcessError{Command: r.name, ExitCode: -1, Stderr: err.Error()}
	}

	return strings.TrimSpace(stdout.String()), nil
}
