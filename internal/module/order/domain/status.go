package domain

import "fmt"

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPaymentPending Status = "PAYMENT_PENDING"
	StatusPaid           Status = "PAID"
	StatusPreparing      Status = "PREPARING"
	StatusReady          Status = "READY"
	StatusCompleted      Status = "COMPLETED"
	StatusCanceled       Status = "CANCELED"
)

// transitions lists the legal target states for each source state.
// Terminal states have no entry.
var transitions = map[Status][]Status{
	StatusPaymentPending: {StatusPaid, StatusCanceled},
	StatusPaid:           {StatusPreparing, StatusCanceled},
	StatusPreparing:      {StatusReady},
	StatusReady:          {StatusCompleted},
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPaymentPending, StatusPaid, StatusPreparing, StatusReady, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// CanTransitionTo checks if a transition to the target status is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s.
func (s Status) AllowedTransitions() []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// ParseStatus converts a string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}
