package cli

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type ExecRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (string, error)
}

type RealExecRunner struct{}

func (r RealExecRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("command failed: %s %s: %w", name, strings.Join(args, " "), err)
	}
	return string(output), nil
}

// FakeExecRunner records commands instead of running them.
type FakeExecRunner struct {
	Calls *[]string
}

func (f FakeExecRunner) Run(_ context.Context, _ string, name string, args ...string) (string, error) {
	if f.Calls != nil {
		*f.Calls = append(*f.Calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	}
	return "", nil
}
