package reconcile

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every *ConfigError via errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigError reports a problem that prevents a pass from starting: the board
// project cannot be resolved, a required phase is missing, or the options are
// unusable. It is always returned before any write.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConfiguration) true for any ConfigError.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// TransportError wraps a failing collaborator call. The pass stops at the first
// one; writes already committed stay committed.
type TransportError struct {
	Op  string // e.g. "board.create_story", "source.set_task_completed"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func transportErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
