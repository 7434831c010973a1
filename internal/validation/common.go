// Package validation provides input validation shared by the config loader
// and the HTTP API.
package validation

import (
	"net"
	"regexp"
	"strconv"
	"strings"

	"nodestack/internal/constants"
	"nodestack/internal/errors"
)

var (
	// serviceNameRegex validates service and container names
	serviceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

	// profileIDRegex validates profile identifiers
	profileIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
)

// ServiceName validates a service or container name to prevent injection
// into runtime commands.
func ServiceName(name string) error {
	if name == "" {
		return errors.ValidationFailed("service_name", name, "cannot be empty")
	}

	if len(name) > 255 {
		return errors.ValidationFailed("service_name", name, "too long (max 255 characters)")
	}

	if !serviceNameRegex.MatchString(name) {
		return errors.ValidationFailed("service_name", name, "contains invalid characters")
	}

	return nil
}

// ProfileID validates a profile identifier
func ProfileID(id string) error {
	if id == "" {
		return errors.ValidationFailed("profile_id", id, "cannot be empty")
	}

	if !profileIDRegex.MatchString(id) {
		return errors.ValidationFailed("profile_id", id, "must be lowercase alphanumeric with dashes")
	}

	return nil
}

// Endpoint validates a host:port endpoint declaration
func Endpoint(endpoint string) error {
	if endpoint == "" {
		return errors.InvalidEndpoint(endpoint, "cannot be empty")
	}

	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return errors.InvalidEndpoint(endpoint, "must be host:port")
	}

	if strings.TrimSpace(host) == "" {
		return errors.InvalidEndpoint(endpoint, "host cannot be empty")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < constants.MinPortNumber || port > constants.MaxPortNumber {
		return errors.InvalidEndpoint(endpoint, "port out of range")
	}

	return nil
}
