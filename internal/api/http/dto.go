package http

import (
	"time"

	"kitchen-dispatch/internal/domain"
)

// StaffResponse is one row of the roster view.
type StaffResponse struct {
	ID         string    `json:"id"`
	Speciality []string  `json:"speciality"`
	Completed  int       `json:"completed"`
	OnDutyFor  string    `json:"on_duty_for"`
	Since      time.Time `json:"since"`
}

func toStaffResponse(info domain.WorkerInfo, now time.Time) StaffResponse {
	return StaffResponse{
		ID:         string(info.ID),
		Speciality: info.Speciality,
		Completed:  info.Completed,
		OnDutyFor:  now.Sub(info.Since).Truncate(time.Second).String(),
		Since:      info.Since,
	}
}
