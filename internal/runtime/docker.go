package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nodestack/internal/constants"
	"nodestack/internal/errors"
	"nodestack/internal/types"
)

// Runtime is the container runtime surface the collector depends on
type Runtime interface {
	// IsAvailable checks if the runtime is reachable on this host
	IsAvailable(ctx context.Context) bool

	// ListProcesses returns all managed containers in one bulk query
	ListProcesses(ctx context.Context) ([]types.Process, error)

	// StartedAt returns the start time of a container
	StartedAt(ctx context.Context, container string) (time.Time, error)

	// Label returns the value of a container label, empty if unset
	Label(ctx context.Context, container, key string) (string, error)

	// Restart restarts a container by name
	Restart(ctx context.Context, container string) error
}

// DockerRuntime implements Runtime over the docker CLI
type DockerRuntime struct {
	executor CommandExecutor

	// CommandTimeout bounds read-only docker commands; RestartTimeout
	// bounds docker restart, which waits for the stop grace period
	CommandTimeout time.Duration
	RestartTimeout time.Duration
}

// NewDockerRuntime creates a new Docker runtime
func NewDockerRuntime(executor CommandExecutor) *DockerRuntime {
	if executor == nil {
		executor = &DefaultCommandExecutor{}
	}
	return &DockerRuntime{
		executor:       executor,
		CommandTimeout: constants.DefaultRuntimeCommandTimeout,
		RestartTimeout: constants.DefaultRestartTimeout,
	}
}

// commandContext caps ctx with the command timeout
func (r *DockerRuntime) commandContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// IsAvailable checks if Docker is available on the system
func (r *DockerRuntime) IsAvailable(ctx context.Context) bool {
	cmd := r.executor.CommandContext(ctx, "docker", "--version")
	return cmd.Run() == nil
}

// ListProcesses returns all containers with their lifecycle state.
// This is the single bulk query shared by every probe in a cycle.
func (r *DockerRuntime) ListProcesses(ctx context.Context) ([]types.Process, error) {
	ctx, cancel := r.commandContext(ctx, r.CommandTimeout)
	defer cancel()

	cmd := r.executor.CommandContext(ctx, "docker", "ps", "-a", "--format", "json")
	output, err := cmd.Output()
	if err != nil {
		return nil, errors.RuntimeCommandFailed("docker ps", err)
	}

	processes := []types.Process{}
	if len(output) == 0 {
		return processes, nil
	}

	// Docker returns newline-separated JSON objects, not a JSON array
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for _, line := range lines {
		if line == "" {
			continue
		}

		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// Skip malformed JSON lines
			continue
		}

		processes = append(processes, types.Process{
			// Docker prefixes names with /
			Name:   strings.TrimPrefix(getStringField(entry, "Names"), "/"),
			State:  parseProcessState(getStringField(entry, "State")),
			Status: getStringField(entry, "Status"),
			Image:  getStringField(entry, "Image"),
		})
	}

	return processes, nil
}

// StartedAt returns a container's start time from docker inspect
func (r *DockerRuntime) StartedAt(ctx context.Context, container string) (time.Time, error) {
	ctx, cancel := r.commandContext(ctx, r.CommandTimeout)
	defer cancel()

	cmd := r.executor.CommandContext(ctx, "docker", "inspect", "--format", "{{.State.StartedAt}}", container)
	output, err := cmd.Output()
	if err != nil {
		return time.Time{}, errors.RuntimeCommandFailed("docker inspect", err)
	}

	started, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(output)))
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrRuntimeCommand, "unparseable container start time", err)
	}

	return started, nil
}

// Label returns the value of a container label
func (r *DockerRuntime) Label(ctx context.Context, container, key string) (string, error) {
	ctx, cancel := r.commandContext(ctx, r.CommandTimeout)
	defer cancel()

	format := fmt.Sprintf(`{{index .Config.Labels %q}}`, key)
	cmd := r.executor.CommandContext(ctx, "docker", "inspect", "--format", format, container)
	output, err := cmd.Output()
	if err != nil {
		return "", errors.RuntimeCommandFailed("docker inspect", err)
	}

	value := strings.TrimSpace(string(output))
	if value == "<no value>" {
		value = ""
	}
	return value, nil
}

// Restart restarts a container by name
func (r *DockerRuntime) Restart(ctx context.Context, container string) error {
	ctx, cancel := r.commandContext(ctx, r.RestartTimeout)
	defer cancel()

	cmd := r.executor.CommandContext(ctx, "docker", "restart", container)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.RestartFailed(container,
			fmt.Errorf("%w, output: %s", err, strings.TrimSpace(string(output))))
	}
	return nil
}

func parseProcessState(raw string) types.ProcessState {
	switch types.ProcessState(strings.ToLower(raw)) {
	case types.ProcessStateRunning:
		return types.ProcessStateRunning
	case types.ProcessStateExited:
		return types.ProcessStateExited
	case types.ProcessStateRestarting:
		return types.ProcessStateRestarting
	case types.ProcessStatePaused:
		return types.ProcessStatePaused
	case types.ProcessStateCreated:
		return types.ProcessStateCreated
	case types.ProcessStateDead:
		return types.ProcessStateDead
	default:
		return types.ProcessStateUnknown
	}
}

func getStringField(data map[string]interface{}, field string) string {
	if value, ok := data[field].(string); ok {
		return value
	}
	return ""
}
