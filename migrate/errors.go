package migrate

import "fmt"

// UnexpectedStateError reports a polled resource reaching a terminal state
// other than ACTIVE.
type UnexpectedStateError struct {
	Kind  ResourceKind
	ID    string
	State string
}

func (e *UnexpectedStateError) Error() string {
	return fmt.Sprintf("unexpected state %q for %s %q", e.State, e.Kind, e.ID)
}

// TimeoutError reports a poll budget exhausted before the resource reached
// a terminal state.
type TimeoutError struct {
	Kind     ResourceKind
	ID       string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s %q to finish being created (%d attempts)", e.Kind, e.ID, e.Attempts)
}

// InvalidStateError reports a found destination resource that is not in the
// state required to use it. No repair is attempted.
type InvalidStateError struct {
	Name  string
	State string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("tsig key %q is in the %q state, but must be in the %q state", e.Name, e.State, StateActive)
}
