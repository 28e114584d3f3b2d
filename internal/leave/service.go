package leave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hanifmaulana/orgops/internal"
	"github.com/hanifmaulana/orgops/internal/core/events"
	"github.com/hanifmaulana/orgops/internal/hierarchy"
	"github.com/hanifmaulana/orgops/internal/notification"
	"github.com/hanifmaulana/orgops/internal/user"
)

// Repository is the workflow's data access surface. Transact runs the
// given function inside a single atomic transaction; the Repository it
// receives is bound to that transaction, and GetByIDForUpdate takes a
// row-level lock within it.
type Repository interface {
	Create(ctx context.Context, req *LeaveRequest) error
	GetByID(ctx context.Context, id int64) (*LeaveRequest, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*LeaveRequest, error)
	ListByRequester(ctx context.Context, requesterID int64, limit, offset int) ([]*LeaveRequest, error)
	UpdateDecision(ctx context.Context, req *LeaveRequest) error
	AppendApproval(ctx context.Context, entry *ApprovalEntry) error
	ListApprovals(ctx context.Context, leaveRequestID int64) ([]ApprovalEntry, error)
	DecrementLeaveBalance(ctx context.Context, userID int64) error
	Transact(ctx context.Context, fn func(Repository) error) error
}

// Directory is the identity lookup the workflow needs.
type Directory interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// ApproverResolver maps an actor to the next approver in the chain, nil
// when the actor's decision is final.
type ApproverResolver interface {
	NextApprover(ctx context.Context, actor hierarchy.Actor) (*hierarchy.Actor, error)
}

// Service drives the leave approval state machine:
// pending -> {approved, rejected}, with pending -> pending escalations
// that reassign the current approver.
type Service struct {
	repo      Repository
	directory Directory
	resolver  ApproverResolver
	bus       *events.EventBus
	logger    *slog.Logger
}

func NewService(repo Repository, directory Directory, resolver ApproverResolver, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		resolver:  resolver,
		bus:       bus,
		logger:    logger,
	}
}

// Submit creates a pending request assigned to the requester's next
// approver. A terminal-role requester gets no approver; such a request
// can only be closed by an override actor.
func (s *Service) Submit(ctx context.Context, requesterID int64, dto CreateLeaveDTO) (*LeaveRequest, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("leave submission validation failed", "error", err, "requester_id", requesterID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidDateRange)
	}

	requester, err := s.directory.GetByID(ctx, requesterID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	approver, err := s.resolver.NextApprover(ctx, requester.Actor())
	if err != nil {
		s.logger.Error("approver resolution failed", "error", err, "requester_id", requesterID)
		return nil, internal.NewInternalError("failed to resolve approver", err)
	}

	req := &LeaveRequest{
		RequesterID: requesterID,
		Status:      StatusPending,
		LeaveType:   dto.LeaveType,
		Reason:      dto.Reason,
		StartDate:   dto.StartDate,
		EndDate:     dto.EndDate,
	}
	if approver != nil {
		req.CurrentApproverID = &approver.ID
	}

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to create leave request", "error", err, "requester_id", requesterID)
		return nil, internal.NewInternalError("failed to create leave request", err)
	}

	s.logger.Info("leave request submitted",
		"leave_request_id", req.ID,
		"requester_id", requesterID,
		"current_approver_id", req.CurrentApproverID)

	if approver != nil {
		outbox := notification.NewOutbox(s.bus)
		outbox.Notify(approver.ID,
			"Leave request awaiting your decision",
			fmt.Sprintf("%s requested %s leave from %s to %s.",
				requester.Name, req.LeaveType,
				req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02")))
		outbox.Flush(ctx)
	}

	return req, nil
}

// Respond applies one approver decision. The whole read-validate-write
// cycle runs in a single transaction holding a row lock on the request,
// so a concurrent second responder observes the terminal state and fails
// with AlreadyProcessed instead of double-applying the balance mutation.
func (s *Service) Respond(ctx context.Context, actorID, requestID int64, dto RespondLeaveDTO) (*LeaveRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidDecision)
	}

	actor, err := s.directory.GetByID(ctx, actorID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	outbox := notification.NewOutbox(s.bus)
	var updated *LeaveRequest

	txErr := s.repo.Transact(ctx, func(tx Repository) error {
		req, err := tx.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		// re-validate against the locked row
		if !req.IsPending() {
			return internal.ErrLeaveAlreadyDecided
		}
		if !s.mayRespond(actor, req) {
			return internal.ErrNotCurrentApprover
		}

		switch dto.Status {
		case StatusRejected:
			if err := s.reject(ctx, tx, req, actor, dto.Remarks, outbox); err != nil {
				return err
			}
		case StatusApproved:
			if err := s.approve(ctx, tx, req, actor, dto.Remarks, outbox); err != nil {
				return err
			}
		}

		updated = req
		return nil
	})

	if txErr != nil {
		outbox.Discard()
		if appErr, ok := internal.IsAppError(txErr); ok {
			return nil, appErr
		}
		s.logger.Error("leave respond transaction failed", "error", txErr, "leave_request_id", requestID, "actor_id", actorID)
		return nil, internal.NewInternalError("failed to process decision", txErr)
	}

	// side effects only after commit
	outbox.Flush(ctx)
	if updated.IsTerminal() {
		_ = s.bus.Publish(ctx, events.NewLeaveDecidedEvent(updated.ID, updated.RequesterID, actorID, updated.Status))
	}

	s.logger.Info("leave decision applied",
		"leave_request_id", updated.ID,
		"actor_id", actorID,
		"status", updated.Status,
		"current_approver_id", updated.CurrentApproverID)

	return updated, nil
}

// mayRespond allows the assigned approver plus the override roles.
func (s *Service) mayRespond(actor *user.User, req *LeaveRequest) bool {
	if actor.Role.CanOverrideLeave() {
		return true
	}
	return req.CurrentApproverID != nil && *req.CurrentApproverID == actor.ID
}

func (s *Service) reject(ctx context.Context, tx Repository, req *LeaveRequest, actor *user.User, remarks string, outbox *notification.Outbox) error {
	if err := tx.AppendApproval(ctx, &ApprovalEntry{
		LeaveRequestID: req.ID,
		ActorID:        actor.ID,
		ActorName:      actor.Name,
		ActorRole:      string(actor.Role),
		Decision:       DecisionRejected,
		Note:           remarks,
	}); err != nil {
		return err
	}

	req.FinalizeRejected()
	if err := tx.UpdateDecision(ctx, req); err != nil {
		return err
	}

	outbox.Notify(req.RequesterID,
		"Leave request rejected",
		fmt.Sprintf("Your %s leave request was rejected by %s.", req.LeaveType, actor.Name))
	return nil
}

func (s *Service) approve(ctx context.Context, tx Repository, req *LeaveRequest, actor *user.User, remarks string, outbox *notification.Outbox) error {
	if err := tx.AppendApproval(ctx, &ApprovalEntry{
		LeaveRequestID: req.ID,
		ActorID:        actor.ID,
		ActorName:      actor.Name,
		ActorRole:      string(actor.Role),
		Decision:       DecisionApproved,
		Note:           remarks,
	}); err != nil {
		return err
	}

	next, err := s.resolver.NextApprover(ctx, actor.Actor())
	if err != nil {
		return err
	}

	// a terminal-role approval, or an exhausted chain, finalizes the request
	if actor.Role.IsTerminalApprover() || next == nil {
		req.FinalizeApproved()
		if err := tx.UpdateDecision(ctx, req); err != nil {
			return err
		}
		// flat deduction of one day per request, in the same transaction
		// as the status write
		if err := tx.DecrementLeaveBalance(ctx, req.RequesterID); err != nil {
			return err
		}

		outbox.Notify(req.RequesterID,
			"Leave request approved",
			fmt.Sprintf("Your %s leave request was approved by %s.", req.LeaveType, actor.Name))
		return nil
	}

	req.Escalate(next.ID)
	if err := tx.UpdateDecision(ctx, req); err != nil {
		return err
	}

	outbox.Notify(next.ID,
		"Leave request escalated to you",
		fmt.Sprintf("%s approved a %s leave request; your decision is required next.", actor.Name, req.LeaveType))
	return nil
}

// GetByID returns a request with its ledger, restricted to participants
// and override roles.
func (s *Service) GetByID(ctx context.Context, callerID, requestID int64) (*LeaveRequest, error) {
	caller, err := s.directory.GetByID(ctx, callerID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, internal.ErrLeaveNotFound
	}

	if !s.mayView(caller, req) {
		return nil, internal.ErrNotCurrentApprover
	}

	history, err := s.repo.ListApprovals(ctx, req.ID)
	if err != nil {
		s.logger.Error("failed to load approval history", "error", err, "leave_request_id", req.ID)
		return nil, internal.NewInternalError("failed to load approval history", err)
	}
	req.ApprovalHistory = history

	return req, nil
}

func (s *Service) mayView(caller *user.User, req *LeaveRequest) bool {
	if caller.ID == req.RequesterID || caller.Role.CanOverrideLeave() {
		return true
	}
	return req.CurrentApproverID != nil && *req.CurrentApproverID == caller.ID
}

// ListMine returns the caller's own requests, newest first.
func (s *Service) ListMine(ctx context.Context, callerID int64, limit, offset int) ([]*LeaveRequest, error) {
	reqs, err := s.repo.ListByRequester(ctx, callerID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list leave requests", "error", err, "requester_id", callerID)
		return nil, internal.NewInternalError("failed to list leave requests", err)
	}
	return reqs, nil
}
