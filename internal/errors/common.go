package errors

import "fmt"

// Configuration Errors
func ConfigNotFound(path string) *StackError {
	return NewWithDetails(ErrConfigNotFound, "Configuration file not found", fmt.Sprintf("Path: %s", path))
}

func ConfigInvalid(reason string) *StackError {
	return NewWithDetails(ErrConfigInvalid, "Invalid configuration", reason)
}

func ConfigParseError(cause error) *StackError {
	return Wrap(ErrConfigParse, "Failed to parse configuration", cause)
}

func ConfigValidationError(field, reason string) *StackError {
	return NewWithDetails(ErrConfigValidation, "Configuration validation failed",
		fmt.Sprintf("Field: %s, Reason: %s", field, reason))
}

// UnknownDependency is raised at graph build time when a service declares a
// dependency on a name that is not present in the registry.
func UnknownDependency(service, dependency string) *StackError {
	return NewWithDetails(ErrUnknownDependency, "Unknown dependency reference",
		fmt.Sprintf("Service: %s, Dependency: %s", service, dependency))
}

// Service Errors
func ServiceNotFound(name string) *StackError {
	return NewWithDetails(ErrServiceNotFound, "Service not found", fmt.Sprintf("Service: %s", name))
}

func ServiceNotRunning(name string) *StackError {
	return NewWithDetails(ErrServiceNotRunning, "Service is not running", fmt.Sprintf("Service: %s", name))
}

// Runtime Errors
func RuntimeCommandFailed(command string, cause error) *StackError {
	return WrapWithDetails(ErrRuntimeCommand, "Runtime command failed",
		fmt.Sprintf("Command: %s", command), cause)
}

func ContainerNotFound(name string) *StackError {
	return NewWithDetails(ErrContainerNotFound, "Container not found", fmt.Sprintf("Name: %s", name))
}

func RestartFailed(name string, cause error) *StackError {
	return WrapWithDetails(ErrRestartFailed, "Failed to restart service",
		fmt.Sprintf("Service: %s", name), cause)
}

// Database Errors
func DatabaseConnection(cause error) *StackError {
	return Wrap(ErrDatabaseConnection, "Database connection failed", cause)
}

func DatabaseQuery(operation string, cause error) *StackError {
	return WrapWithDetails(ErrDatabaseQuery, "Database query failed",
		fmt.Sprintf("Operation: %s", operation), cause)
}

func DatabaseMigration(cause error) *StackError {
	return Wrap(ErrDatabaseMigration, "Database migration failed", cause)
}

// Validation Errors
func ValidationFailed(field, value, reason string) *StackError {
	return NewWithDetails(ErrValidationFailed, "Validation failed",
		fmt.Sprintf("Field: %s, Value: %s, Reason: %s", field, value, reason))
}

func InvalidEndpoint(endpoint, reason string) *StackError {
	return NewWithDetails(ErrInvalidEndpoint, "Invalid endpoint",
		fmt.Sprintf("Endpoint: %s, Reason: %s", endpoint, reason))
}

// Internal Errors
func Internal(message string, cause error) *StackError {
	return Wrap(ErrInternal, message, cause)
}

func Timeout(operation string) *StackError {
	return NewWithDetails(ErrTimeout, "Operation timed out", fmt.Sprintf("Operation: %s", operation))
}
