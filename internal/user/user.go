package user

import (
	"errors"
	"time"

	"github.com/hanifmaulana/orgops/internal/auth"
	userDatamodel "github.com/hanifmaulana/orgops/internal/core/datamodel/user"
	"github.com/hanifmaulana/orgops/internal/hierarchy"
)

// User is the directory's domain view of an organization member. The
// workflow engine reads role and hierarchy fields; leave_balance and
// conduct_score are mutated only inside workflow transactions.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         auth.Role `json:"role"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	ReportsToID  *int64    `json:"reports_to_id,omitempty"`
	LeaveBalance int       `json:"leave_balance"`
	ConductScore float64   `json:"conduct_score"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor trims a user down to the resolver's view.
func (u *User) Actor() hierarchy.Actor {
	return hierarchy.Actor{
		ID:           u.ID,
		Name:         u.Name,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
	}
}

var (
	ErrUserNotFound = errors.New("user not found")
	ErrCyclicChain  = errors.New("assignment would create a reporting cycle")
)

func FromDataModel(m *userDatamodel.User) *User {
	return &User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		Role:         auth.Role(m.Role),
		DepartmentID: m.DepartmentID,
		ReportsToID:  m.ReportsToID,
		LeaveBalance: m.LeaveBalance,
		ConductScore: m.ConductScore,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		DepartmentID: u.DepartmentID,
		ReportsToID:  u.ReportsToID,
		LeaveBalance: u.LeaveBalance,
		ConductScore: u.ConductScore,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
