// Package runtime talks to the container runtime. All external calls go
// through the docker CLI behind a CommandExecutor so tests can substitute
// their own command construction.
package runtime

import (
	"context"
	"os/exec"
)

// CommandExecutor abstracts command execution for testability
type CommandExecutor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// DefaultCommandExecutor implements CommandExecutor using standard exec
type DefaultCommandExecutor struct{}

func (e *DefaultCommandExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
