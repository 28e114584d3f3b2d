package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/hanifmaulana/orgops/internal/auth"
	userDatamodel "github.com/hanifmaulana/orgops/internal/core/datamodel/user"
	"github.com/hanifmaulana/orgops/internal/hierarchy"
	"github.com/hanifmaulana/orgops/internal/user"
	"gorm.io/gorm"
)

// UserRepository implements user.Repository using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var m userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = true", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&m), nil
}

// HeadOfDepartment returns the department's head assignment, or nil when
// the department has none.
func (r *UserRepository) HeadOfDepartment(ctx context.Context, departmentID int64) (*hierarchy.Actor, error) {
	var dept userDatamodel.Department
	err := r.db.WithContext(ctx).Where("id = ?", departmentID).First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if dept.HeadUserID == nil {
		return nil, nil
	}

	head, err := r.GetByID(ctx, *dept.HeadUserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	actor := head.Actor()
	return &actor, nil
}

// FirstByRole returns the oldest active holder of a role, or nil if the
// role is unfilled. Ordering by id keeps resolution deterministic.
func (r *UserRepository) FirstByRole(ctx context.Context, role auth.Role) (*hierarchy.Actor, error) {
	var m userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = true", string(role)).
		Order("id ASC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	actor := user.FromDataModel(&m).Actor()
	return &actor, nil
}

// ListByRole returns every active holder of a role, ordered by id.
func (r *UserRepository) ListByRole(ctx context.Context, role auth.Role) ([]*user.User, error) {
	var models []*userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = true", string(role)).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	users := make([]*user.User, len(models))
	for i, m := range models {
		users[i] = user.FromDataModel(m)
	}
	return users, nil
}

func (r *UserRepository) ManagerOf(ctx context.Context, userID int64) (*int64, error) {
	var m userDatamodel.User
	err := r.db.WithContext(ctx).Select("reports_to_id").Where("id = ?", userID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return m.ReportsToID, nil
}

func (r *UserRepository) UpdateManager(ctx context.Context, userID int64, managerID *int64) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reports_to_id": managerID,
			"updated_at":    time.Now(),
		}).Error
}
