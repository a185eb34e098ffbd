// internal/domain/staff.go
package domain

import (
	"errors"
	"sort"
	"time"
)

var (
	// ErrNotRegistered is returned when an off-duty event names staff that is not on duty.
	ErrNotRegistered = errors.New("staff member not registered")
	// ErrNoCapableWorker is returned when no on-duty staff has the requested speciality.
	ErrNoCapableWorker = errors.New("no staff member with requested speciality")
	// ErrInvalidEvent is returned when a scope is missing required fields.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrUnknownEvent is returned for an unrecognised event type.
	ErrUnknownEvent = errors.New("unknown event type")
)

// StaffID identifies a staff member.
type StaffID string

// Capability is a speciality tag such as "grill" or "bakery".
type Capability string

// CapabilitySet is the set of specialities a staff member can cook.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from tags, dropping duplicates.
func NewCapabilitySet(tags ...string) CapabilitySet {
	set := make(CapabilitySet, len(tags))
	for _, t := range tags {
		set[Capability(t)] = struct{}{}
	}
	return set
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Strings returns the tags sorted.
func (s CapabilitySet) Strings() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// WorkerInfo is a read-only view of one on-duty staff member.
type WorkerInfo struct {
	ID         StaffID   `json:"id"`
	Speciality []string  `json:"speciality"`
	Completed  int       `json:"completed"`
	Since      time.Time `json:"since"`
}
