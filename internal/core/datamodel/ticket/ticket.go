package ticket

import "time"

// Ticket persistence model. Severity is immutable after creation and is
// the sole source of the conduct-score penalty.
type Ticket struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	IssuerID    *int64     `json:"issuer_id,omitempty" gorm:"column:issuer_id;index"`
	TargetID    int64      `json:"target_id" gorm:"column:target_id;not null;index"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description" gorm:"type:text"`
	Severity    string     `json:"severity" gorm:"not null"`
	Status      string     `json:"status" gorm:"not null;default:open;index"`
	IsAnonymous bool       `json:"is_anonymous" gorm:"column:is_anonymous;default:false"`
	ContestNote *string    `json:"contest_note,omitempty" gorm:"column:contest_note;type:text"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty" gorm:"column:resolved_at"`
	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Ticket) TableName() string {
	return "tickets"
}
