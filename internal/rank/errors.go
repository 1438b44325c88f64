package rank

import "fmt"

// ValidationError reports a rejected input set before any scoring work ran.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// ConfigError reports an invalid weight or engine parameter value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// ComputationError reports a defensive bounds violation inside the engine.
// Unreachable under normal inputs; reserved for iteration cap overruns and
// similar internal invariant failures.
type ComputationError struct {
	Stage  string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation: %s: %s", e.Stage, e.Reason)
}
