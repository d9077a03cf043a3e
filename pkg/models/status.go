package models

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a job. Any status may move to any other.
type Status string

const (
	StatusNew           Status = "new"
	StatusInProgress    Status = "in_progress"
	StatusAwaitingParts Status = "awaiting_parts"
	StatusOnHold        Status = "on_hold"
	StatusDone          Status = "done"
)

// ErrInvalidStatus is returned when a status value is not in the enumeration.
var ErrInvalidStatus = errors.New("invalid job status")

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusNew,
	StatusInProgress,
	StatusAwaitingParts,
	StatusOnHold,
	StatusDone,
}

var statusLabels = map[Status]string{
	StatusNew:           "New",
	StatusInProgress:    "In Progress",
	StatusAwaitingParts: "Awaiting Parts",
	StatusOnHold:        "On Hold",
	StatusDone:          "Done",
}

// Label returns the human-readable name of the status.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// legacyStatuses maps the labels older job sheets used.
var legacyStatuses = map[string]Status{
	"waiting for assignment": StatusNew,
	"completed":              StatusDone,
}

// ParseStatus accepts either the wire value ("awaiting_parts") or the label
// ("Awaiting Parts"), case-insensitively.
func ParseStatus(v string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(v))
	for _, s := range Statuses {
		if norm == string(s) || norm == strings.ToLower(s.Label()) {
			return s, nil
		}
	}
	if s, ok := legacyStatuses[norm]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
}
