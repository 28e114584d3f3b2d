package leave

import (
	"errors"
	"time"
)

// CreateLeaveDTO is the submission payload.
type CreateLeaveDTO struct {
	LeaveType string    `json:"type"`
	Reason    string    `json:"reason"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func (dto CreateLeaveDTO) Validate() error {
	if dto.LeaveType == "" {
		return errors.New("leave type is required")
	}
	if dto.StartDate.IsZero() || dto.EndDate.IsZero() {
		return errors.New("start and end dates are required")
	}
	if dto.EndDate.Before(dto.StartDate) {
		return errors.New("end date must not be before start date")
	}
	if len(dto.Reason) > 1000 {
		return errors.New("reason must be less than 1000 characters")
	}
	return nil
}

// RespondLeaveDTO carries an approver's decision.
type RespondLeaveDTO struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks,omitempty"`
}

func (dto RespondLeaveDTO) Validate() error {
	if dto.Status == "" {
		return errors.New("status is required")
	}
	if dto.Status != StatusApproved && dto.Status != StatusRejected {
		return errors.New("status must be either 'approved' or 'rejected'")
	}
	return nil
}
