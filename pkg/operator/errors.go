package operator

import "fmt"

// ConfigurationError is raised synchronously from New when Options or the
// body function's shape fails validation: zero inputs, or a body whose
// arity doesn't match len(Inputs).
type ConfigurationError struct {
	Why string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("operator: configuration error: %s", e.Why)
}
