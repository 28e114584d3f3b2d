package ticket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hanifmaulana/orgops/internal"
	"github.com/hanifmaulana/orgops/internal/auth"
	"github.com/hanifmaulana/orgops/internal/core/events"
	"github.com/hanifmaulana/orgops/internal/notification"
	"github.com/hanifmaulana/orgops/internal/user"
)

// Repository is the workflow's data access surface. Transact runs fn in
// one atomic transaction; ApplyConductPenalty and UpdateStatus called on
// the transaction-bound repository commit or roll back together.
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id int64) (*Ticket, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*Ticket, error)
	ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*Ticket, error)
	UpdateStatus(ctx context.Context, t *Ticket) error
	ApplyConductPenalty(ctx context.Context, userID int64, penalty float64) (float64, error)
	Delete(ctx context.Context, id int64) error
	Transact(ctx context.Context, fn func(Repository) error) error
}

// Directory is the identity lookup the workflow needs.
type Directory interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	ListByRole(ctx context.Context, role auth.Role) ([]*user.User, error)
}

// Service drives the disciplinary ticket state machine:
// open -> {resolved, contested, voided}; contested -> {resolved, voided}.
type Service struct {
	repo      Repository
	directory Directory
	bus       *events.EventBus
	logger    *slog.Logger
}

func NewService(repo Repository, directory Directory, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		bus:       bus,
		logger:    logger,
	}
}

// Issue creates an open ticket. Anonymous reports skip every
// authorization check; named issuance is restricted by role and the
// direct-report line.
func (s *Service) Issue(ctx context.Context, issuerID int64, dto IssueTicketDTO) (*Ticket, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	target, err := s.directory.GetByID(ctx, dto.TargetUserID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	t := &Ticket{
		TargetID:    target.ID,
		Title:       dto.Title,
		Description: dto.Description,
		Severity:    Severity(dto.Severity),
		Status:      StatusOpen,
		IsAnonymous: dto.IsAnonymous,
	}

	var issuer *user.User
	if !dto.IsAnonymous {
		issuer, err = s.directory.GetByID(ctx, issuerID)
		if err != nil {
			return nil, internal.ErrUserNotFound
		}
		if err := s.authorizeIssuer(issuer, target); err != nil {
			return nil, err
		}
		t.IssuerID = &issuer.ID
	}

	if err := s.repo.Create(ctx, t); err != nil {
		s.logger.Error("failed to create ticket", "error", err, "target_id", target.ID)
		return nil, internal.NewInternalError("failed to create ticket", err)
	}

	s.logger.Info("ticket issued",
		"ticket_id", t.ID,
		"target_id", t.TargetID,
		"severity", t.Severity,
		"anonymous", t.IsAnonymous)

	outbox := notification.NewOutbox(s.bus)
	outbox.Notify(target.ID,
		"Disciplinary ticket opened against you",
		fmt.Sprintf("A %s-severity ticket was opened: %s", t.Severity, t.Title))
	if issuer != nil {
		outbox.Notify(issuer.ID,
			"Ticket submitted",
			fmt.Sprintf("Your ticket against %s was recorded.", target.Name))
	}
	outbox.Flush(ctx)

	return t, nil
}

// authorizeIssuer enforces the named-issuance rules: general staff must
// use the anonymous path, super authorities bypass hierarchy checks, and
// everyone else may only accuse their own direct reports.
func (s *Service) authorizeIssuer(issuer, target *user.User) error {
	if issuer.Role == auth.RoleGeneralStaff {
		s.logger.Warn("ticket issuance denied: general staff must report anonymously", "issuer_id", issuer.ID)
		return internal.NewForbiddenError("general staff must use anonymous reporting", internal.ErrCodeIssuerForbidden)
	}
	if issuer.Role.IsSuperAuthority() {
		return nil
	}
	if target.ReportsToID == nil || *target.ReportsToID != issuer.ID {
		s.logger.Warn("ticket issuance denied: target is not a direct report",
			"issuer_id", issuer.ID, "target_id", target.ID)
		return internal.NewForbiddenError("target is not a direct report of the issuer", internal.ErrCodeIssuerForbidden)
	}
	return nil
}

// Respond applies one action inside a single transaction that reads and
// writes both the ticket and the target's conduct score. A concurrent
// second responder observes the terminal state under the row lock and
// fails with AlreadyProcessed; the score is decremented exactly once.
func (s *Service) Respond(ctx context.Context, actorID, ticketID int64, dto RespondTicketDTO) (*TicketDecisionResponse, error) {
	action, ok := ParseAction(dto.Action)
	if !ok {
		return nil, internal.NewInvalidActionError(fmt.Sprintf("unrecognized action %q", dto.Action))
	}
	if action == ActionContest && dto.ContestNote == "" {
		return nil, internal.NewValidationError("contest_note is required to contest a ticket", internal.ErrCodeMissingContestNote)
	}

	actor, err := s.directory.GetByID(ctx, actorID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	outbox := notification.NewOutbox(s.bus)
	response := &TicketDecisionResponse{}
	var resolved *Ticket

	txErr := s.repo.Transact(ctx, func(tx Repository) error {
		t, err := tx.GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}

		// re-validate against the locked row
		if t.IsTerminal() {
			return internal.ErrTicketAlreadyClosed
		}
		isTarget := actor.ID == t.TargetID
		isSuper := actor.Role.IsSuperAuthority()
		if !isTarget && !isSuper {
			return internal.ErrNotTicketParty
		}

		switch action {
		case ActionAcknowledge:
			if !isTarget {
				return internal.ErrNotTicketParty
			}
			return s.applyResolution(ctx, tx, t, outbox, response, &resolved)

		case ActionResolve:
			if !isSuper {
				return internal.ErrNotTicketParty
			}
			return s.applyResolution(ctx, tx, t, outbox, response, &resolved)

		case ActionContest:
			if !isTarget {
				return internal.ErrNotTicketParty
			}
			if t.Status == StatusContested {
				return internal.NewValidationError("ticket is already contested", internal.ErrCodeValidationFailed)
			}
			return s.applyContest(ctx, tx, t, dto.ContestNote, outbox, response)

		case ActionVoid:
			if !isSuper {
				return internal.ErrNotTicketParty
			}
			return s.applyVoid(ctx, tx, t, outbox, response)
		}

		return internal.NewInvalidActionError(fmt.Sprintf("unrecognized action %q", dto.Action))
	})

	if txErr != nil {
		outbox.Discard()
		if appErr, ok := internal.IsAppError(txErr); ok {
			return nil, appErr
		}
		s.logger.Error("ticket respond transaction failed", "error", txErr, "ticket_id", ticketID, "actor_id", actorID)
		return nil, internal.NewInternalError("failed to process ticket action", txErr)
	}

	// side effects only after commit
	outbox.Flush(ctx)
	if resolved != nil && response.CurrentScore != nil {
		_ = s.bus.Publish(ctx, events.NewTicketResolvedEvent(resolved.ID, resolved.TargetID, string(resolved.Severity), *response.CurrentScore))
	}

	s.logger.Info("ticket action applied",
		"ticket_id", ticketID,
		"actor_id", actorID,
		"action", action,
		"status", response.Status)

	return response, nil
}

// applyResolution moves the ticket to resolved and applies the severity
// penalty to the target's score in the same transaction; both writes
// commit or roll back together.
func (s *Service) applyResolution(ctx context.Context, tx Repository, t *Ticket, outbox *notification.Outbox, response *TicketDecisionResponse, resolved **Ticket) error {
	t.Resolve()
	if err := tx.UpdateStatus(ctx, t); err != nil {
		return err
	}

	score, err := tx.ApplyConductPenalty(ctx, t.TargetID, t.Severity.Penalty())
	if err != nil {
		return err
	}

	response.Status = t.Status
	response.CurrentScore = &score
	*resolved = t

	outbox.Notify(t.TargetID,
		"Ticket resolved",
		fmt.Sprintf("Ticket %q was resolved; a %.0f point conduct penalty was applied.", t.Title, t.Severity.Penalty()))
	if t.IssuerID != nil {
		outbox.Notify(*t.IssuerID,
			"Ticket resolved",
			fmt.Sprintf("Your ticket %q was resolved.", t.Title))
	}
	return nil
}

// applyContest marks the ticket contested; no score mutation. The issuer
// (when known) and every super authority get review notifications.
func (s *Service) applyContest(ctx context.Context, tx Repository, t *Ticket, note string, outbox *notification.Outbox, response *TicketDecisionResponse) error {
	t.Contest(note)
	if err := tx.UpdateStatus(ctx, t); err != nil {
		return err
	}

	response.Status = t.Status

	if t.IssuerID != nil {
		outbox.Notify(*t.IssuerID,
			"Ticket contested",
			fmt.Sprintf("Ticket %q was contested by its target.", t.Title))
	}
	for role := range auth.SuperAuthorityRoles {
		supers, err := s.directory.ListByRole(ctx, role)
		if err != nil {
			s.logger.Error("failed to list super authorities for contest review", "error", err, "role", role)
			continue
		}
		for _, su := range supers {
			outbox.Notify(su.ID,
				"Contested ticket requires review",
				fmt.Sprintf("Ticket %q was contested: %s", t.Title, note))
		}
	}
	return nil
}

// applyVoid cancels the ticket without any score mutation.
func (s *Service) applyVoid(ctx context.Context, tx Repository, t *Ticket, outbox *notification.Outbox, response *TicketDecisionResponse) error {
	t.Void()
	if err := tx.UpdateStatus(ctx, t); err != nil {
		return err
	}

	response.Status = t.Status

	outbox.Notify(t.TargetID,
		"Ticket voided",
		fmt.Sprintf("Ticket %q was voided; no penalty applies.", t.Title))
	if t.IssuerID != nil {
		outbox.Notify(*t.IssuerID,
			"Ticket voided",
			fmt.Sprintf("Your ticket %q was voided.", t.Title))
	}
	return nil
}

// GetByID restricts reads to participants and super authorities.
func (s *Service) GetByID(ctx context.Context, callerID, ticketID int64) (*Ticket, error) {
	caller, err := s.directory.GetByID(ctx, callerID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	t, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, internal.ErrTicketNotFound
	}

	isIssuer := t.IssuerID != nil && *t.IssuerID == caller.ID
	if caller.ID != t.TargetID && !isIssuer && !caller.Role.IsSuperAuthority() {
		return nil, internal.ErrNotTicketParty
	}

	return t, nil
}

// ListForUser returns tickets where the caller is target or issuer.
func (s *Service) ListForUser(ctx context.Context, callerID int64, limit, offset int) ([]*Ticket, error) {
	tickets, err := s.repo.ListForUser(ctx, callerID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list tickets", "error", err, "user_id", callerID)
		return nil, internal.NewInternalError("failed to list tickets", err)
	}
	return tickets, nil
}

// Purge permanently deletes a ticket. The router restricts this to super
// authorities; the check is repeated here so the rule survives any
// routing mistake.
func (s *Service) Purge(ctx context.Context, callerID, ticketID int64) error {
	caller, err := s.directory.GetByID(ctx, callerID)
	if err != nil {
		return internal.ErrUserNotFound
	}
	if !caller.Role.IsSuperAuthority() {
		return internal.NewForbiddenError("ticket purge requires a super authority", internal.ErrCodeIssuerForbidden)
	}

	if _, err := s.repo.GetByID(ctx, ticketID); err != nil {
		return internal.ErrTicketNotFound
	}

	if err := s.repo.Delete(ctx, ticketID); err != nil {
		s.logger.Error("failed to purge ticket", "error", err, "ticket_id", ticketID)
		return internal.NewInternalError("failed to purge ticket", err)
	}

	s.logger.Info("ticket purged", "ticket_id", ticketID, "actor_id", callerID)
	return nil
}
