package domain

import "context"

// RosterObserver is told about every change to the set of on-duty staff.
// Implementations must not call back into the dispatcher.
type RosterObserver interface {
	OnDuty(ctx context.Context, info WorkerInfo) error
	OffDuty(ctx context.Context, id StaffID) error
}

// NopRoster ignores every notification.
type NopRoster struct{}

func (NopRoster) OnDuty(context.Context, WorkerInfo) error { return nil }
func (NopRoster) OffDuty(context.Context, StaffID) error   { return nil }
