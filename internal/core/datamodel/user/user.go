package user

import "time"

// User is the persistence model for organization members. The workflow
// engine reads role and hierarchy fields and mutates only the two ledger
// numerics, leave_balance and conduct_score.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`
	Role         string    `json:"role" gorm:"not null;index"`
	DepartmentID *int64    `json:"department_id,omitempty" gorm:"column:department_id;index"`
	ReportsToID  *int64    `json:"reports_to_id,omitempty" gorm:"column:reports_to_id"`
	LeaveBalance int       `json:"leave_balance" gorm:"column:leave_balance;default:12"`
	ConductScore float64   `json:"conduct_score" gorm:"column:conduct_score;default:100"`
	IsActive     bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}

// Department carries the head assignment the approval resolver consults.
type Department struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"uniqueIndex;not null"`
	HeadUserID *int64    `json:"head_user_id,omitempty" gorm:"column:head_user_id"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Department) TableName() string {
	return "departments"
}
