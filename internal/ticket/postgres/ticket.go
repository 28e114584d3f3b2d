package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/hanifmaulana/orgops/internal"
	ticketDatamodel "github.com/hanifmaulana/orgops/internal/core/datamodel/ticket"
	userDatamodel "github.com/hanifmaulana/orgops/internal/core/datamodel/user"
	"github.com/hanifmaulana/orgops/internal/ticket"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TicketRepository implements ticket.Repository using GORM.
type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) ticket.Repository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	m := ticket.ToDataModel(t)
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*t = *ticket.FromDataModel(m)
	return nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*ticket.Ticket, error) {
	var m ticketDatamodel.Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket.FromDataModel(&m), nil
}

// GetByIDForUpdate takes a row lock so concurrent responders serialize on
// the ticket. SQLite locks the whole database per transaction, so the
// clause is postgres-only.
func (r *TicketRepository) GetByIDForUpdate(ctx context.Context, id int64) (*ticket.Ticket, error) {
	tx := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var m ticketDatamodel.Ticket
	err := tx.Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket.FromDataModel(&m), nil
}

func (r *TicketRepository) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*ticket.Ticket, error) {
	var models []*ticketDatamodel.Ticket
	err := r.db.WithContext(ctx).
		Where("target_id = ? OR issuer_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	tickets := make([]*ticket.Ticket, len(models))
	for i, m := range models {
		tickets[i] = ticket.FromDataModel(m)
	}
	return tickets, nil
}

// UpdateStatus persists status, contest note and resolution time.
func (r *TicketRepository) UpdateStatus(ctx context.Context, t *ticket.Ticket) error {
	return r.db.WithContext(ctx).Model(&ticketDatamodel.Ticket{}).
		Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"status":       t.Status,
			"contest_note": t.ContestNote,
			"resolved_at":  t.ResolvedAt,
			"updated_at":   time.Now(),
		}).Error
}

// ApplyConductPenalty deducts the penalty clamped at zero and returns the
// resulting score. Written portably so the sqlite-backed specs exercise
// the same statement.
func (r *TicketRepository) ApplyConductPenalty(ctx context.Context, userID int64, penalty float64) (float64, error) {
	err := r.db.WithContext(ctx).Exec(
		`UPDATE users
		 SET conduct_score = CASE WHEN conduct_score > ? THEN conduct_score - ? ELSE 0 END,
		     updated_at = ?
		 WHERE id = ?`, penalty, penalty, time.Now(), userID).Error
	if err != nil {
		return 0, err
	}

	var m userDatamodel.User
	if err := r.db.WithContext(ctx).Select("conduct_score").Where("id = ?", userID).First(&m).Error; err != nil {
		return 0, err
	}
	return m.ConductScore, nil
}

func (r *TicketRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&ticketDatamodel.Ticket{}).Error
}

// Transact runs fn inside one transaction; the repository passed to fn is
// bound to it. Any error rolls the whole transaction back.
func (r *TicketRepository) Transact(ctx context.Context, fn func(ticket.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TicketRepository{db: tx})
	})
}
