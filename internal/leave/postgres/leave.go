package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/hanifmaulana/orgops/internal"
	leaveDatamodel "github.com/hanifmaulana/orgops/internal/core/datamodel/leave"
	"github.com/hanifmaulana/orgops/internal/leave"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeaveRepository implements leave.Repository using GORM.
type LeaveRepository struct {
	db *gorm.DB
}

func NewLeaveRepository(db *gorm.DB) leave.Repository {
	return &LeaveRepository{db: db}
}

func (r *LeaveRepository) Create(ctx context.Context, req *leave.LeaveRequest) error {
	m := leave.ToDataModel(req)
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*req = *leave.FromDataModel(m)
	return nil
}

func (r *LeaveRepository) GetByID(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
	var m leaveDatamodel.LeaveRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrLeaveNotFound
		}
		return nil, err
	}
	return leave.FromDataModel(&m), nil
}

// GetByIDForUpdate takes a row lock so concurrent responders serialize on
// the request. SQLite locks the whole database per transaction, so the
// clause is postgres-only.
func (r *LeaveRepository) GetByIDForUpdate(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
	tx := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var m leaveDatamodel.LeaveRequest
	err := tx.Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrLeaveNotFound
		}
		return nil, err
	}
	return leave.FromDataModel(&m), nil
}

func (r *LeaveRepository) ListByRequester(ctx context.Context, requesterID int64, limit, offset int) ([]*leave.LeaveRequest, error) {
	var models []*leaveDatamodel.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	reqs := make([]*leave.LeaveRequest, len(models))
	for i, m := range models {
		reqs[i] = leave.FromDataModel(m)
	}
	return reqs, nil
}

// UpdateDecision persists status, approver assignment and decision time.
func (r *LeaveRepository) UpdateDecision(ctx context.Context, req *leave.LeaveRequest) error {
	return r.db.WithContext(ctx).Model(&leaveDatamodel.LeaveRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]interface{}{
			"status":              req.Status,
			"current_approver_id": req.CurrentApproverID,
			"decided_at":          req.DecidedAt,
			"updated_at":          time.Now(),
		}).Error
}

// AppendApproval inserts one ledger row. The ledger is append-only: no
// update or delete method exists on this repository.
func (r *LeaveRepository) AppendApproval(ctx context.Context, entry *leave.ApprovalEntry) error {
	m := leave.EntryToDataModel(entry)
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*entry = leave.EntryFromDataModel(m)
	return nil
}

func (r *LeaveRepository) ListApprovals(ctx context.Context, leaveRequestID int64) ([]leave.ApprovalEntry, error) {
	var models []*leaveDatamodel.ApprovalEntry
	err := r.db.WithContext(ctx).
		Where("leave_request_id = ?", leaveRequestID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]leave.ApprovalEntry, len(models))
	for i, m := range models {
		entries[i] = leave.EntryFromDataModel(m)
	}
	return entries, nil
}

// DecrementLeaveBalance applies the flat one-day deduction, clamped at
// zero, written portably so the sqlite-backed specs exercise it too.
func (r *LeaveRepository) DecrementLeaveBalance(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE users
		 SET leave_balance = CASE WHEN leave_balance > 0 THEN leave_balance - 1 ELSE 0 END,
		     updated_at = ?
		 WHERE id = ?`, time.Now(), userID).Error
}

// Transact runs fn inside one transaction; the repository passed to fn is
// bound to it. Any error rolls the whole transaction back.
func (r *LeaveRepository) Transact(ctx context.Context, fn func(leave.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LeaveRepository{db: tx})
	})
}
