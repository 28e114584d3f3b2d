package leave

import (
	"time"

	leaveDatamodel "github.com/hanifmaulana/orgops/internal/core/datamodel/leave"
)

// Leave request statuses. pending is the only non-terminal state.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Ledger decisions.
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// LeaveRequest is the workflow's view of a request. ApprovalHistory is
// the append-only decision ledger; it is audit data and never drives
// state transitions.
type LeaveRequest struct {
	ID                int64           `json:"id"`
	RequesterID       int64           `json:"requester_id"`
	CurrentApproverID *int64          `json:"current_approver_id"`
	Status            string          `json:"status"`
	LeaveType         string          `json:"leave_type"`
	Reason            string          `json:"reason"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	DecidedAt         *time.Time      `json:"decided_at,omitempty"`
	ApprovalHistory   []ApprovalEntry `json:"approval_history,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ApprovalEntry is one immutable ledger record.
type ApprovalEntry struct {
	ID             int64     `json:"id"`
	LeaveRequestID int64     `json:"leave_request_id"`
	ActorID        int64     `json:"actor_id"`
	ActorName      string    `json:"actor_name"`
	ActorRole      string    `json:"actor_role"`
	Decision       string    `json:"decision"`
	Note           string    `json:"note"`
	RecordedAt     time.Time `json:"recorded_at"`
}

func (r *LeaveRequest) IsPending() bool {
	return r.Status == StatusPending
}

func (r *LeaveRequest) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}

// FinalizeApproved moves the request into its approved terminal state.
func (r *LeaveRequest) FinalizeApproved() {
	now := time.Now()
	r.Status = StatusApproved
	r.CurrentApproverID = nil
	r.DecidedAt = &now
	r.UpdatedAt = now
}

// FinalizeRejected moves the request into its rejected terminal state.
func (r *LeaveRequest) FinalizeRejected() {
	now := time.Now()
	r.Status = StatusRejected
	r.CurrentApproverID = nil
	r.DecidedAt = &now
	r.UpdatedAt = now
}

// Escalate reassigns the current approver without leaving pending.
func (r *LeaveRequest) Escalate(approverID int64) {
	r.CurrentApproverID = &approverID
	r.UpdatedAt = time.Now()
}

func ToDataModel(r *LeaveRequest) *leaveDatamodel.LeaveRequest {
	return &leaveDatamodel.LeaveRequest{
		ID:                r.ID,
		RequesterID:       r.RequesterID,
		CurrentApproverID: r.CurrentApproverID,
		Status:            r.Status,
		LeaveType:         r.LeaveType,
		Reason:            r.Reason,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		DecidedAt:         r.DecidedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func FromDataModel(m *leaveDatamodel.LeaveRequest) *LeaveRequest {
	return &LeaveRequest{
		ID:                m.ID,
		RequesterID:       m.RequesterID,
		CurrentApproverID: m.CurrentApproverID,
		Status:            m.Status,
		LeaveType:         m.LeaveType,
		Reason:            m.Reason,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		DecidedAt:         m.DecidedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func EntryToDataModel(e *ApprovalEntry) *leaveDatamodel.ApprovalEntry {
	return &leaveDatamodel.ApprovalEntry{
		ID:             e.ID,
		LeaveRequestID: e.LeaveRequestID,
		ActorID:        e.ActorID,
		ActorName:      e.ActorName,
		ActorRole:      e.ActorRole,
		Decision:       e.Decision,
		Note:           e.Note,
		RecordedAt:     e.RecordedAt,
	}
}

func EntryFromDataModel(m *leaveDatamodel.ApprovalEntry) ApprovalEntry {
	return ApprovalEntry{
		ID:             m.ID,
		LeaveRequestID: m.LeaveRequestID,
		ActorID:        m.ActorID,
		ActorName:      m.ActorName,
		ActorRole:      m.ActorRole,
		Decision:       m.Decision,
		Note:           m.Note,
		RecordedAt:     m.RecordedAt,
	}
}
