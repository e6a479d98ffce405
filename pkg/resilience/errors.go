package resilience

import "github.com/chris-alexander-pop/system-design-library/pkg/errors"

// CodeCircuitOpen identifies a fast-fail rejection from an open circuit breaker.
const CodeCircuitOpen = "RESILIENCE_CIRCUIT_OPEN"

// ErrCircuitOpen reports that a circuit breaker rejected a call without
// invoking the wrapped function.
func ErrCircuitOpen(name string) *errors.AppError {
	return errors.New(CodeCircuitOpen, "circuit breaker open: "+name, nil)
}
