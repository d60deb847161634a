package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/skillgate/skillgate/pkg/domain"
)

// runTerminalCommand spawns a shell command, capturing stdout and stderr
// separately. A non-zero exit code is a normal result; only failure to
// spawn or the timeout are errors.
func (e *Executor) runTerminalCommand(ctx context.Context, params map[string]any) (any, error) {
	command, err := stringParam(params, "command")
	if err != nil {
		return nil, err
	}
	if command == "" {
		return nil, fmt.Errorf("parameter command: required")
	}

	workingDir, err := stringParam(params, "working_dir")
	if err != nil {
		return nil, err
	}
	if workingDir == "" {
		workingDir = e.workDir
	}

	cctx, cancel := context.WithTimeout(ctx, e.commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "/bin/sh", "-c", command)
	cmd.Dir = workingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
	}

	waitErr := cmd.Wait()

	if cctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w after %s: %s", domain.ErrCommandTimedOut, e.commandTimeout, command)
	}

	out := domain.TerminalOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawnFailed, waitErr)
	}

	return out, nil
}
