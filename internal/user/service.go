package user

import (
	"context"
	"log/slog"

	"github.com/hanifmaulana/orgops/internal"
	"github.com/hanifmaulana/orgops/internal/auth"
	"github.com/hanifmaulana/orgops/internal/hierarchy"
)

// Repository is the directory's data access surface. It doubles as the
// resolver's Directory and the acyclicity guard's ManagerLookup.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	HeadOfDepartment(ctx context.Context, departmentID int64) (*hierarchy.Actor, error)
	FirstByRole(ctx context.Context, role auth.Role) (*hierarchy.Actor, error)
	ListByRole(ctx context.Context, role auth.Role) ([]*User, error)
	ManagerOf(ctx context.Context, userID int64) (*int64, error)
	UpdateManager(ctx context.Context, userID int64, managerID *int64) error
}

// Service handles directory reads and the one hierarchy write the engine
// owns: manager reassignment guarded by the acyclicity check.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("user lookup failed", "error", err, "user_id", id)
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

// AssignManager repoints a user's reports_to reference after verifying
// the target exists and the edge keeps the chart acyclic.
func (s *Service) AssignManager(ctx context.Context, userID int64, managerID *int64) error {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return internal.ErrUserNotFound
	}

	if managerID != nil {
		if _, err := s.repo.GetByID(ctx, *managerID); err != nil {
			return internal.ErrUserNotFound
		}

		cyclic, err := hierarchy.WouldCreateCycle(ctx, s.repo, userID, *managerID)
		if err != nil {
			s.logger.Error("cycle check failed", "error", err, "user_id", userID, "manager_id", *managerID)
			return internal.NewInternalError("failed to validate reporting chain", err)
		}
		if cyclic {
			s.logger.Warn("manager assignment rejected: reporting cycle",
				"user_id", userID, "manager_id", *managerID)
			return internal.NewValidationError("assignment would create a reporting cycle", internal.ErrCodeHierarchyCycle)
		}
	}

	if err := s.repo.UpdateManager(ctx, userID, managerID); err != nil {
		s.logger.Error("failed to update manager", "error", err, "user_id", userID)
		return internal.NewInternalError("failed to update manager", err)
	}

	s.logger.Info("manager reassigned", "user_id", userID, "manager_id", managerID)
	return nil
}
