package codestore

// Status is the lifecycle state of a pending code.
type Status string

const (
	StatusPending Status = "pending"

	// device codes
	StatusCompleted   Status = "completed"
	StatusInvalidated Status = "invalidated"

	// confirmation codes
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition out of s is allowed,
// except completed -> invalidated.
func (s Status) Terminal() bool {
	return s != StatusPending
}

func (s Status) String() string {
	return string(s)
}
