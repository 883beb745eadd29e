package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidStatus = errors.New("invalid status value")

// Status is the lifecycle state of an order as seen by the kitchen.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusPickedUp   Status = "picked_up"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusPickedUp}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusPickedUp:
		return true
	}
	return false
}

// IsActive reports whether the kitchen still has work to do on the order.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusProcessing
}

func (s Status) String() string { return string(s) }

// UnmarshalText rejects unknown statuses so bad snapshots fail at decode time.
func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
