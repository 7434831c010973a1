package types

// ProcessState is the lifecycle state reported by the container runtime
type ProcessState string

const (
	ProcessStateRunning    ProcessState = "running"
	ProcessStateExited     ProcessState = "exited"
	ProcessStateRestarting ProcessState = "restarting"
	ProcessStatePaused     ProcessState = "paused"
	ProcessStateCreated    ProcessState = "created"
	ProcessStateDead       ProcessState = "dead"
	ProcessStateUnknown    ProcessState = "unknown"
)

// Live reports whether the state counts as a live process
func (s ProcessState) Live() bool {
	return s == ProcessStateRunning || s == ProcessStateRestarting
}

// Process is one managed container as reported by the bulk runtime query
type Process struct {
	Name   string       `json:"name"`
	State  ProcessState `json:"state"`
	Status string       `json:"status"`
	Image  string       `json:"image"`
}
