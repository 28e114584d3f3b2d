package leave_test

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
	"github.com/hanifmaulana/orgops/internal/hierarchy"
	"github.com/hanifmaulana/orgops/internal/leave"
	"github.com/hanifmaulana/orgops/internal/user"
)

func TestLeave(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Leave Suite")
}

// Mock repository for testing
type mockLeaveRepository struct {
	requests       map[int64]*leave.LeaveRequest
	entries        map[int64][]leave.ApprovalEntry
	decrements     map[int64]int
	nextID         int64
	createError    error
	updateError    error
	decrementError error
}

func newMockLeaveRepository() *mockLeaveRepository {
	return &mockLeaveRepository{
		requests:   make(map[int64]*leave.LeaveRequest),
		entries:    make(map[int64][]leave.ApprovalEntry),
		decrements: make(map[int64]int),
		nextID:     1,
	}
}

func (m *mockLeaveRepository) Create(_ context.Context, req *leave.LeaveRequest) error {
	if m.createError != nil {
		return m.createError
	}
	req.ID = m.nextID
	m.nextID++
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	clone := *req
	m.requests[req.ID] = &clone
	return nil
}

func (m *mockLeaveRepository) GetByID(_ context.Context, id int64) (*leave.LeaveRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, internal.ErrLeaveNotFound
	}
	clone := *req
	return &clone, nil
}

func (m *mockLeaveRepository) GetByIDForUpdate(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
	return m.GetByID(ctx, id)
}

func (m *mockLeaveRepository) ListByRequester(_ context.Context, requesterID int64, limit, offset int) ([]*leave.LeaveRequest, error) {
	var out []*leave.LeaveRequest
	for _, req := range m.requests {
		if req.RequesterID == requesterID {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockLeaveRepository) UpdateDecision(_ context.Context, req *leave.LeaveRequest) error {
	if m.updateError != nil {
		return m.updateError
	}
	clone := *req
	m.requests[req.ID] = &clone
	return nil
}

func (m *mockLeaveRepository) AppendApproval(_ context.Context, entry *leave.ApprovalEntry) error {
	entry.ID = int64(len(m.entries[entry.LeaveRequestID]) + 1)
	entry.RecordedAt = time.Now()
	m.entries[entry.LeaveRequestID] = append(m.entries[entry.LeaveRequestID], *entry)
	return nil
}

func (m *mockLeaveRepository) ListApprovals(_ context.Context, leaveRequestID int64) ([]leave.ApprovalEntry, error) {
	return m.entries[leaveRequestID], nil
}

func (m *mockLeaveRepository) DecrementLeaveBalance(_ context.Context, userID int64) error {
	if m.decrementError != nil {
		return m.decrementError
	}
	m.decrements[userID]++
	return nil
}

func (m *mockLeaveRepository) Transact(_ context.Context, fn func(leave.Repository) error) error {
	return fn(m)
}

// Mock directory for testing
type mockUserDirectory struct {
	users map[int64]*user.User
}

func newMockUserDirectory() *mockUserDirectory {
	return &mockUserDirectory{users: make(map[int64]*user.User)}
}

func (m *mockUserDirectory) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (m *mockUserDirectory) add(id int64, name string, role auth.Role, deptID *int64) *user.User {
	u := &user.User{ID: id, Name: name, Role: role, DepartmentID: deptID, IsActive: true, LeaveBalance: 12}
	m.users[id] = u
	return u
}

// Mock resolver for testing
type mockResolver struct {
	nextByActorID map[int64]*hierarchy.Actor
	err           error
}

func newMockResolver() *mockResolver {
	return &mockResolver{nextByActorID: make(map[int64]*hierarchy.Actor)}
}

func (m *mockResolver) NextApprover(_ context.Context, actor hierarchy.Actor) (*hierarchy.Actor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.nextByActorID[actor.ID], nil
}

func actorOf(u *user.User) *hierarchy.Actor {
	a := u.Actor()
	return &a
}

var _ = Describe("LeaveService", func() {
	var (
		service  *leave.Service
		repo     *mockLeaveRepository
		dir      *mockUserDirectory
		resolver *mockResolver
		bus      *events.EventBus
		ctx      context.Context

		staff *user.User
		head  *user.User
		hr    *user.User
		md    *user.User
		admin *user.User

		deptID int64 = 1
	)

	BeforeEach(func() {
		repo = newMockLeaveRepository()
		dir = newMockUserDirectory()
		resolver = newMockResolver()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus = events.NewEventBus(logger)
		service = leave.NewService(repo, dir, resolver, bus, logger)
		ctx = context.Background()

		staff = dir.add(1, "Agus", auth.RoleGeneralStaff, &deptID)
		head = dir.add(10, "Dimas", auth.RoleDepartmentHead, &deptID)
		hr = dir.add(20, "Sari", auth.RoleHumanResources, nil)
		md = dir.add(30, "Bagus", auth.RoleManagingDirector, nil)
		admin = dir.add(40, "Rina", auth.RoleAdministrator, nil)

		// staff -> head -> hr -> md -> (terminal)
		resolver.nextByActorID[staff.ID] = actorOf(head)
		resolver.nextByActorID[head.ID] = actorOf(hr)
		resolver.nextByActorID[hr.ID] = actorOf(md)
		resolver.nextByActorID[md.ID] = actorOf(admin)
	})

	validDTO := func() leave.CreateLeaveDTO {
		return leave.CreateLeaveDTO{
			LeaveType: "annual",
			Reason:    "family trip",
			StartDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
		}
	}

	Describe("Submit", func() {
		It("creates a pending request assigned to the resolved approver", func() {
			req, err := service.Submit(ctx, staff.ID, validDTO())

			Expect(err).ToNot(HaveOccurred())
			Expect(req.Status).To(Equal(leave.StatusPending))
			Expect(req.CurrentApproverID).ToNot(BeNil())
			Expect(*req.CurrentApproverID).To(Equal(head.ID))
		})

		It("leaves the approver unassigned for a terminal-role requester", func() {
			req, err := service.Submit(ctx, admin.ID, validDTO())

			Expect(err).ToNot(HaveOccurred())
			Expect(req.Status).To(Equal(leave.StatusPending))
			Expect(req.CurrentApproverID).To(BeNil())
		})

		It("rejects an end date before the start date", func() {
			dto := validDTO()
			dto.EndDate = dto.StartDate.AddDate(0, 0, -1)

			_, err := service.Submit(ctx, staff.ID, dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("rejects a missing leave type", func() {
			dto := validDTO()
			dto.LeaveType = ""

			_, err := service.Submit(ctx, staff.ID, dto)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Respond", func() {
		var req *leave.LeaveRequest

		BeforeEach(func() {
			var err error
			req, err = service.Submit(ctx, staff.ID, validDTO())
			Expect(err).ToNot(HaveOccurred())
		})

		Context("walking the full escalation chain", func() {
			It("escalates through head and HR, finalizes at the managing director, and deducts exactly one day", func() {
				// department head approves: escalate to HR
				updated, err := service.Respond(ctx, head.ID, req.ID, leave.RespondLeaveDTO{Status: leave.StatusApproved})
				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(leave.StatusPending))
				Expect(*updated.CurrentApproverID).To(Equal(hr.ID))

				// HR approves: escalate to MD
				updated, err = service.Respond(ctx, hr.ID, req.ID, leave.RespondLeaveDTO{Status: leave.StatusApproved})
				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(leave.StatusPending))
				Expect(*updated.CurrentApproverID).To(Equal(md.ID))

				// MD approval is terminal even though a next approver exists
				updated, err = service.Respond(ctx, md.ID, req.ID, leave.RespondLeaveDTO{Status: leave.StatusApproved})
				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(leave.StatusApproved))
				Expect(updated.CurrentApproverID).To(BeNil())
				Expect(updated.DecidedAt).ToNot(BeNil())

				Expect(repo.decrements[staff.ID]).To(Equal(1))
				Expect(repo.entries[req.ID]).To(HaveLen(3))
			})
		})

		Context("when an override role acts on a request assigned to someone else", func() {
			It("lets the administrator reject it directly", func() {
				updated, err := service.Respond(ctx, admin.ID, req.ID, leave.RespondLeaveDTO{Status: leave.StatusRejected, Remarks: "headcount freeze"})

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(leave.StatusRejected))
				Expect(updated.CurrentApproverID).To(BeNil())
				Expect(repo.decrements[staff.ID]).To(BeZero())

				entries := repo.entries[req.ID]
				Expect(entries).To(HaveLen(1))
				Expect(entries[0].ActorID).To(Equal(admin.ID))
				Expect(entries[0].Decision).To(Equal(leave.DecisionRejected))
				Expect(entries[0].Note).To(Equal("headcount freeze"))
			})
		})

		Context("when someone other than the assigned approver responds", func() {
			It("refuses with a not-authorized error", func() {
				_, err := service.Respond(ctx, hr.ID, req.ID, leave.RespondLeaveDTO{Status: leave.StatusApproved})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeNotAuthorized))
				Expect(repo.entries[req.ID]).To(BeEmpty())
			})
		})

		Context("when the request was already decided", func() {
			It("fails with already-processed and records no second ledger entry", func() {
				_, err := service.Respond(ctx, admin.ID, req.ID, leave.RespondLeaveDTO{Status: leave.StatusRejected})
				Expect(err).ToNot(HaveOccurred())

				_, err = service.Respond(ctx, md.ID, req.ID, leave.RespondLeaveDTO{Status: leave.StatusApproved})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeAlreadyProcessed))
				Expect(appErr.StatusCode).To(Equal(409))
				Expect(repo.entries[req.ID]).To(HaveLen(1))
				Expect(repo.decrements[staff.ID]).To(BeZero())
			})
		})

		Context("with an unknown status value", func() {
			It("fails validation before touching the request", func() {
				_, err := service.Respond(ctx, head.ID, req.ID, leave.RespondLeaveDTO{Status: "maybe"})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			})
		})

		Context("when the balance write fails", func() {
			It("rolls the whole decision back", func() {
				repo.decrementError = errors.New("disk full")

				_, err := service.Respond(ctx, md.ID, req.ID, leave.RespondLeaveDTO{Status: leave.StatusApproved})
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("GetByID", func() {
		var req *leave.LeaveRequest

		BeforeEach(func() {
			var err error
			req, err = service.Submit(ctx, staff.ID, validDTO())
			Expect(err).ToNot(HaveOccurred())
		})

		It("returns the request with its ledger for the requester", func() {
			_, err := service.Respond(ctx, head.ID, req.ID, leave.RespondLeaveDTO{Status: leave.StatusApproved})
			Expect(err).ToNot(HaveOccurred())

			got, err := service.GetByID(ctx, staff.ID, req.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.ApprovalHistory).To(HaveLen(1))
		})

		It("refuses an unrelated caller", func() {
			_, err := service.GetByID(ctx, hr.ID, req.ID)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeNotAuthorized))
		})
	})
})
