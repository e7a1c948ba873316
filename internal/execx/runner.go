package execx

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

// Result carries the outcome of a finished subprocess. ExitCode is only
// meaningful when the process actually started.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner starts an external command and waits for it. A non-zero exit
// status is reported through Result.ExitCode, not through the error; the
// error is reserved for spawn failures (binary missing, fork failure).
type Runner interface {
	Run(ctx context.Context, name string, args []string, env []string) (Result, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string, env []string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

var _ Runner = ExecRunner{}
