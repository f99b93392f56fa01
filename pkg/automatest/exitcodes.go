// Package automatest provides public constants for tools that invoke the
// automatest CLI, such as CI wrappers and schedulers.
package automatest

// Exit codes returned by the automatest CLI.
const (
	// ExitSuccess indicates every selected collection passed.
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure or at least one collection that did not pass.
	ExitFailure = 1

	// ExitConfigError indicates a configuration error (invalid config, missing SMTP settings, etc.).
	ExitConfigError = 2

	// ExitEnvError indicates an environment error (runner not on PATH, login failed, etc.).
	ExitEnvError = 3
)
