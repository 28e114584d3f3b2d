package leave

import "time"

// LeaveRequest persistence model. current_approver_id is non-null exactly
// while status is pending.
type LeaveRequest struct {
	ID                int64      `json:"id" gorm:"primaryKey"`
	RequesterID       int64      `json:"requester_id" gorm:"column:requester_id;not null;index"`
	CurrentApproverID *int64     `json:"current_approver_id" gorm:"column:current_approver_id;index"`
	Status            string     `json:"status" gorm:"not null;default:pending;index"`
	LeaveType         string     `json:"leave_type" gorm:"column:leave_type;not null"`
	Reason            string     `json:"reason" gorm:"type:text"`
	StartDate         time.Time  `json:"start_date" gorm:"column:start_date;type:date;not null"`
	EndDate           time.Time  `json:"end_date" gorm:"column:end_date;type:date;not null"`
	DecidedAt         *time.Time `json:"decided_at,omitempty" gorm:"column:decided_at"`
	CreatedAt         time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt         time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// ApprovalEntry is one row of the append-only decision ledger. No update
// or delete path exists anywhere in the codebase.
type ApprovalEntry struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	LeaveRequestID int64     `json:"leave_request_id" gorm:"column:leave_request_id;not null;index"`
	ActorID        int64     `json:"actor_id" gorm:"column:actor_id;not null"`
	ActorName      string    `json:"actor_name" gorm:"column:actor_name;not null"`
	ActorRole      string    `json:"actor_role" gorm:"column:actor_role;not null"`
	Decision       string    `json:"decision" gorm:"not null"`
	Note           string    `json:"note" gorm:"type:text"`
	RecordedAt     time.Time `json:"recorded_at" gorm:"column:recorded_at;default:now()"`
}

func (ApprovalEntry) TableName() string {
	return "approval_entries"
}
