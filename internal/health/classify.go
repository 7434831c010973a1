package health

import (
	"strings"

	"nodestack/internal/registry"
	"nodestack/internal/types"
)

// Failure classification separates "expected startup lag" from "genuine
// fault" for services that take a long time to become operational after
// their process starts. A freshly started node daemon spends minutes to
// hours syncing before its RPC port answers; treating that window as
// unhealthy would page operators for normal behavior.
//
// The signature table below is a heuristic and deliberately narrow. It is
// versioned so that any widening of the matching rules is an explicit,
// reviewable change. Signatures are matched against the terminal probe
// error after the retry budget is exhausted.
//
// Table version: 1

// syncSignature names one known "still initializing" error shape
type syncSignature struct {
	// name identifies the heuristic in logs
	name string
	// substring matched against the terminal error text
	substring string
}

var syncSignatures = []syncSignature{
	// The RPC port is not bound yet
	{name: "connection-refused", substring: "connection refused"},
	// The port is bound but the protocol handler is not up
	{name: "connection-reset", substring: "connection reset"},
	// The daemon accepts connections but does not answer in time
	{name: "timeout", substring: "i/o timeout"},
	{name: "deadline", substring: "context deadline exceeded"},
	// The socket speaks, but not the expected protocol yet
	{name: "bad-handshake", substring: "bad handshake"},
	{name: "unexpected-eof", substring: "unexpected EOF"},
}

// syncProne reports whether a service is of a kind that legitimately
// spends long periods initializing: a critical stream-rpc unit, i.e. the
// node daemon itself.
func syncProne(svc registry.ServiceDescriptor) bool {
	return svc.Critical && svc.Protocol == types.ProtocolStreamRPC
}

// classifyFailure maps a terminal probe error to a health status. The
// matched signature name is returned for operator visibility, empty when
// no signature matched.
func classifyFailure(svc registry.ServiceDescriptor, err error) (types.HealthStatus, string) {
	if err == nil {
		return types.HealthStatusHealthy, ""
	}

	if syncProne(svc) {
		text := err.Error()
		for _, sig := range syncSignatures {
			if strings.Contains(text, sig.substring) {
				return types.HealthStatusSyncing, sig.name
			}
		}
	}

	return types.HealthStatusUnhealthy, ""
}
