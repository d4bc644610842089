package executor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Runner is the single boundary to the foreign R runtime. Everything
// above it works with plain script text and captured output, which
// keeps the rest of the system statically typed and lets tests swap in
// a fake runtime.
type Runner interface {
	Run(ctx context.Context, script string) (stdout, stderr string, err error)
}

// RscriptRunner executes scripts through the Rscript binary. A running
// script is not interruptible beyond context cancellation of the child
// process; this tool is single-user and synchronous.
type RscriptRunner struct {
	binary string
	logger *slog.Logger
}

// NewRscriptRunner locates the Rscript binary (or verifies an explicit
// path) and returns a runner bound to it.
func NewRscriptRunner(binary string, logger *slog.Logger) (*RscriptRunner, error) {
	if binary == "" {
		binary = "Rscript"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("R runtime not available: %w", err)
	}
	logger.Info("Located R runtime", "binary", path)
	return &RscriptRunner{binary: path, logger: logger}, nil
}

// Run writes the script to a temporary file and executes it with
// --vanilla, returning captured stdout and stderr. A non-zero exit is
// reported as an error with the output still populated.
func (r *RscriptRunner) Run(ctx context.Context, script string) (string, string, error) {
	tmp, err := os.CreateTemp("", "autods-*.R")
	if err != nil {
		return "", "", fmt.Errorf("stage R script: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(script); err != nil {
		tmp.Close()
		return "", "", fmt.Errorf("write R script: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", "", fmt.Errorf("write R script: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, "--vanilla", tmp.Name())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("Running R script", "binary", r.binary, "script_bytes", len(script))
	err = cmd.Run()
	return stdout.String(), stderr.String(), err
}
