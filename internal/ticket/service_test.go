package ticket_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hanifmaulana/orgops/internal"
	"github.com/hanifmaulana/orgops/internal/auth"
	"github.com/hanifmaulana/orgops/internal/core/events"
	"github.com/hanifmaulana/orgops/internal/ticket"
	"github.com/hanifmaulana/orgops/internal/user"
)

func TestTicket(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ticket Suite")
}

// Mock repository for testing
type mockTicketRepository struct {
	tickets     map[int64]*ticket.Ticket
	scores      map[int64]float64
	nextID      int64
	createError error
	updateError error
	deleted     []int64
}

func newMockTicketRepository() *mockTicketRepository {
	return &mockTicketRepository{
		tickets: make(map[int64]*ticket.Ticket),
		scores:  make(map[int64]float64),
		nextID:  1,
	}
}

func (m *mockTicketRepository) Create(_ context.Context, t *ticket.Ticket) error {
	if m.createError != nil {
		return m.createError
	}
	t.ID = m.nextID
	m.nextID++
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	clone := *t
	m.tickets[t.ID] = &clone
	return nil
}

func (m *mockTicketRepository) GetByID(_ context.Context, id int64) (*ticket.Ticket, error) {
	t, ok := m.tickets[id]
	if !ok {
		return nil, internal.ErrTicketNotFound
	}
	clone := *t
	return &clone, nil
}

func (m *mockTicketRepository) GetByIDForUpdate(ctx context.Context, id int64) (*ticket.Ticket, error) {
	return m.GetByID(ctx, id)
}

func (m *mockTicketRepository) ListForUser(_ context.Context, userID int64, limit, offset int) ([]*ticket.Ticket, error) {
	var out []*ticket.Ticket
	for _, t := range m.tickets {
		if t.TargetID == userID || (t.IssuerID != nil && *t.IssuerID == userID) {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockTicketRepository) UpdateStatus(_ context.Context, t *ticket.Ticket) error {
	if m.updateError != nil {
		return m.updateError
	}
	clone := *t
	m.tickets[t.ID] = &clone
	return nil
}

func (m *mockTicketRepository) ApplyConductPenalty(_ context.Context, userID int64, penalty float64) (float64, error) {
	score := m.scores[userID] - penalty
	if score < 0 {
		score = 0
	}
	m.scores[userID] = score
	return score, nil
}

func (m *mockTicketRepository) Delete(_ context.Context, id int64) error {
	delete(m.tickets, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockTicketRepository) Transact(_ context.Context, fn func(ticket.Repository) error) error {
	return fn(m)
}

// Mock directory for testing
type mockTicketDirectory struct {
	users map[int64]*user.User
}

func newMockTicketDirectory() *mockTicketDirectory {
	return &mockTicketDirectory{users: make(map[int64]*user.User)}
}

func (m *mockTicketDirectory) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (m *mockTicketDirectory) ListByRole(_ context.Context, role auth.Role) ([]*user.User, error) {
	var out []*user.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockTicketDirectory) add(id int64, name string, role auth.Role, reportsTo *int64) *user.User {
	u := &user.User{ID: id, Name: name, Role: role, ReportsToID: reportsTo, IsActive: true, ConductScore: 100}
	m.users[id] = u
	return u
}

var _ = Describe("TicketService", func() {
	var (
		service *ticket.Service
		repo    *mockTicketRepository
		dir     *mockTicketDirectory
		ctx     context.Context

		staff    *user.User
		coworker *user.User
		head     *user.User
		hr       *user.User
		md       *user.User
		topExec  *user.User
	)

	BeforeEach(func() {
		repo = newMockTicketRepository()
		dir = newMockTicketDirectory()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus := events.NewEventBus(logger)
		service = ticket.NewService(repo, dir, bus, logger)
		ctx = context.Background()

		topExec = dir.add(50, "Tiara", auth.RoleTopExecutive, nil)
		md = dir.add(30, "Bagus", auth.RoleManagingDirector, &topExec.ID)
		hr = dir.add(20, "Sari", auth.RoleHumanResources, &md.ID)
		head = dir.add(10, "Dimas", auth.RoleDepartmentHead, &hr.ID)
		staff = dir.add(1, "Agus", auth.RoleGeneralStaff, &head.ID)
		coworker = dir.add(2, "Putra", auth.RoleGeneralStaff, &head.ID)

		for _, u := range dir.users {
			repo.scores[u.ID] = 100
		}
	})

	issueDTO := func(target int64, severity string) ticket.IssueTicketDTO {
		return ticket.IssueTicketDTO{
			TargetUserID: target,
			Title:        "Policy breach",
			Description:  "details",
			Severity:     severity,
		}
	}

	Describe("Issue", func() {
		Context("named issuance", func() {
			It("lets a manager file against a direct report", func() {
				t, err := service.Issue(ctx, head.ID, issueDTO(staff.ID, "medium"))

				Expect(err).ToNot(HaveOccurred())
				Expect(t.Status).To(Equal(ticket.StatusOpen))
				Expect(t.IssuerID).ToNot(BeNil())
				Expect(*t.IssuerID).To(Equal(head.ID))
			})

			It("forbids general staff entirely", func() {
				_, err := service.Issue(ctx, staff.ID, issueDTO(coworker.ID, "low"))

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeForbidden))
			})

			It("forbids filing against someone outside the issuer's reports", func() {
				_, err := service.Issue(ctx, head.ID, issueDTO(hr.ID, "low"))

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeForbidden))
			})

			It("lets a super authority file against anyone", func() {
				t, err := service.Issue(ctx, md.ID, issueDTO(staff.ID, "high"))

				Expect(err).ToNot(HaveOccurred())
				Expect(*t.IssuerID).To(Equal(md.ID))
			})
		})

		Context("anonymous issuance", func() {
			It("skips every authorization check and records no issuer", func() {
				dto := issueDTO(head.ID, "low")
				dto.IsAnonymous = true

				t, err := service.Issue(ctx, staff.ID, dto)

				Expect(err).ToNot(HaveOccurred())
				Expect(t.IssuerID).To(BeNil())
				Expect(t.IsAnonymous).To(BeTrue())
			})
		})

		It("rejects an unknown severity", func() {
			_, err := service.Issue(ctx, head.ID, issueDTO(staff.ID, "catastrophic"))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("Respond", func() {
		var open *ticket.Ticket

		BeforeEach(func() {
			var err error
			open, err = service.Issue(ctx, head.ID, issueDTO(staff.ID, "high"))
			Expect(err).ToNot(HaveOccurred())
		})

		Context("acknowledge by the target", func() {
			It("resolves the ticket and applies the severity penalty atomically", func() {
				resp, err := service.Respond(ctx, staff.ID, open.ID, ticket.RespondTicketDTO{Action: "acknowledge"})

				Expect(err).ToNot(HaveOccurred())
				Expect(resp.Status).To(Equal(ticket.StatusResolved))
				Expect(resp.CurrentScore).ToNot(BeNil())
				Expect(*resp.CurrentScore).To(Equal(float64(90)))
				Expect(repo.scores[staff.ID]).To(Equal(float64(90)))
			})

			It("clamps the conduct score at zero", func() {
				repo.scores[staff.ID] = 15

				first, err := service.Issue(ctx, head.ID, issueDTO(staff.ID, "critical"))
				Expect(err).ToNot(HaveOccurred())

				resp, err := service.Respond(ctx, staff.ID, first.ID, ticket.RespondTicketDTO{Action: "acknowledge"})
				Expect(err).ToNot(HaveOccurred())
				Expect(*resp.CurrentScore).To(Equal(float64(0)))
			})

			It("refuses anyone who is not the target", func() {
				_, err := service.Respond(ctx, hr.ID, open.ID, ticket.RespondTicketDTO{Action: "acknowledge"})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeNotAuthorized))
			})
		})

		Context("resolve by a super authority", func() {
			It("applies the penalty even on a contested ticket", func() {
				_, err := service.Respond(ctx, staff.ID, open.ID, ticket.RespondTicketDTO{Action: "contest", ContestNote: "I dispute this"})
				Expect(err).ToNot(HaveOccurred())

				resp, err := service.Respond(ctx, md.ID, open.ID, ticket.RespondTicketDTO{Action: "resolve"})
				Expect(err).ToNot(HaveOccurred())
				Expect(resp.Status).To(Equal(ticket.StatusResolved))
				Expect(repo.scores[staff.ID]).To(Equal(float64(90)))
			})

			It("is not available to the target's manager", func() {
				_, err := service.Respond(ctx, head.ID, open.ID, ticket.RespondTicketDTO{Action: "resolve"})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeNotAuthorized))
			})
		})

		Context("contest by the target", func() {
			It("marks the ticket contested without touching the score", func() {
				resp, err := service.Respond(ctx, staff.ID, open.ID, ticket.RespondTicketDTO{Action: "contest", ContestNote: "I was on leave that day"})

				Expect(err).ToNot(HaveOccurred())
				Expect(resp.Status).To(Equal(ticket.StatusContested))
				Expect(resp.CurrentScore).To(BeNil())
				Expect(repo.scores[staff.ID]).To(Equal(float64(100)))

				stored, err := repo.GetByID(ctx, open.ID)
				Expect(err).ToNot(HaveOccurred())
				Expect(stored.ContestNote).ToNot(BeNil())
				Expect(*stored.ContestNote).To(Equal("I was on leave that day"))
			})

			It("requires a contest note", func() {
				_, err := service.Respond(ctx, staff.ID, open.ID, ticket.RespondTicketDTO{Action: "contest"})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			})

			It("cannot be repeated on an already contested ticket", func() {
				_, err := service.Respond(ctx, staff.ID, open.ID, ticket.RespondTicketDTO{Action: "contest", ContestNote: "first"})
				Expect(err).ToNot(HaveOccurred())

				_, err = service.Respond(ctx, staff.ID, open.ID, ticket.RespondTicketDTO{Action: "contest", ContestNote: "second"})
				Expect(err).To(HaveOccurred())
			})
		})

		Context("void by a super authority", func() {
			It("closes the ticket without any penalty", func() {
				resp, err := service.Respond(ctx, topExec.ID, open.ID, ticket.RespondTicketDTO{Action: "void"})

				Expect(err).ToNot(HaveOccurred())
				Expect(resp.Status).To(Equal(ticket.StatusVoided))
				Expect(resp.CurrentScore).To(BeNil())
				Expect(repo.scores[staff.ID]).To(Equal(float64(100)))
			})

			It("is refused for the target", func() {
				_, err := service.Respond(ctx, staff.ID, open.ID, ticket.RespondTicketDTO{Action: "void"})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeNotAuthorized))
			})
		})

		Context("terminal tickets", func() {
			It("fails with already-processed on a second action, even by a different actor", func() {
				_, err := service.Respond(ctx, staff.ID, open.ID, ticket.RespondTicketDTO{Action: "acknowledge"})
				Expect(err).ToNot(HaveOccurred())

				_, err = service.Respond(ctx, md.ID, open.ID, ticket.RespondTicketDTO{Action: "resolve"})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeAlreadyProcessed))
				Expect(appErr.StatusCode).To(Equal(409))
				// the penalty applied exactly once
				Expect(repo.scores[staff.ID]).To(Equal(float64(90)))
			})
		})

		Context("with an unrecognized action", func() {
			It("fails before loading the ticket", func() {
				_, err := service.Respond(ctx, staff.ID, open.ID, ticket.RespondTicketDTO{Action: "escalate"})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidAction))
			})
		})
	})

	Describe("Purge", func() {
		var open *ticket.Ticket

		BeforeEach(func() {
			var err error
			open, err = service.Issue(ctx, head.ID, issueDTO(staff.ID, "low"))
			Expect(err).ToNot(HaveOccurred())
		})

		It("deletes the ticket for a super authority", func() {
			Expect(service.Purge(ctx, topExec.ID, open.ID)).To(Succeed())
			Expect(repo.deleted).To(ContainElement(open.ID))
		})

		It("is refused for everyone else", func() {
			err := service.Purge(ctx, hr.ID, open.ID)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeForbidden))
		})
	})

	Describe("GetByID", func() {
		It("restricts reads to parties and super authorities", func() {
			t, err := service.Issue(ctx, head.ID, issueDTO(staff.ID, "low"))
			Expect(err).ToNot(HaveOccurred())

			_, err = service.GetByID(ctx, staff.ID, t.ID)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.GetByID(ctx, head.ID, t.ID)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.GetByID(ctx, topExec.ID, t.ID)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.GetByID(ctx, coworker.ID, t.ID)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeNotAuthorized))
		})
	})
})
