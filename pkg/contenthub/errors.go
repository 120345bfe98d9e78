package contenthub

import (
	"errors"
	"fmt"
	"strings"
)

// Error types
var (
	// ErrNotFound indicates the full candidate space was exhausted without a
	// validating tracker, or that a lookup had no match.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParam indicates a caller supplied chain, type or address failed validation
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrMissingParam indicates a required parameter was not supplied
	ErrMissingParam = errors.New("missing parameter")

	// ErrUnsupportedOperation indicates the requested method is unknown or no
	// tracker implements it
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrProbeTimeout indicates an adapter call did not answer within the call timeout
	ErrProbeTimeout = errors.New("adapter call timed out")

	// ErrCapabilityMissing indicates a tracker validated but lacks the
	// capability the operation needs
	ErrCapabilityMissing = errors.New("tracker lacks required capability")
)

// ProbeError records why a single candidate was abandoned.
type ProbeError struct {
	Address   string
	Candidate Candidate
	Err       error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s as %s on %s failed: %v", e.Address, e.Candidate.Type, e.Candidate.Chain, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// ResolutionError is returned when every candidate failed. It unwraps to
// ErrNotFound.
type ResolutionError struct {
	Address  string
	Attempts []*ProbeError
}

func (e *ResolutionError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("no tracker resolved %s: no candidates", e.Address)
	}
	tried := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		tried = append(tried, string(a.Candidate.Type)+"@"+string(a.Candidate.Chain))
	}
	return fmt.Sprintf("no tracker resolved %s after %d candidates (%s)", e.Address, len(e.Attempts), strings.Join(tried, ", "))
}

func (e *ResolutionError) Unwrap() error {
	return ErrNotFound
}

// ParamError describes a rejected request parameter.
type ParamError struct {
	Param string
	Value string
	Err   error
}

func (e *ParamError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Param, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Param, e.Value, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

// missing is shorthand for a missing-parameter error.
func missing(param string) error {
	return &ParamError{Param: param, Err: ErrMissingParam}
}
