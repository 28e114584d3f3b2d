package postgres

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hanifmaulana/orgops/internal"
	leaveDatamodel "github.com/hanifmaulana/orgops/internal/core/datamodel/leave"
	userDatamodel "github.com/hanifmaulana/orgops/internal/core/datamodel/user"
	"github.com/hanifmaulana/orgops/internal/leave"
)

func TestLeaveRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "LeaveRepository Suite")
}

var _ = Describe("LeaveRepository", func() {
	var (
		db   *gorm.DB
		repo leave.Repository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&userDatamodel.User{}, &leaveDatamodel.LeaveRequest{}, &leaveDatamodel.ApprovalEntry{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewLeaveRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	newRequest := func(requesterID int64, approverID *int64) *leave.LeaveRequest {
		return &leave.LeaveRequest{
			RequesterID:       requesterID,
			CurrentApproverID: approverID,
			Status:            leave.StatusPending,
			LeaveType:         "annual",
			Reason:            "family trip",
			StartDate:         time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
			EndDate:           time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
		}
	}

	Describe("Create and GetByID", func() {
		It("persists and reads back a pending request", func() {
			approverID := int64(10)
			req := newRequest(1, &approverID)

			err := repo.Create(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.ID).To(BeNumerically(">", 0))

			got, err := repo.GetByID(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(leave.StatusPending))
			Expect(*got.CurrentApproverID).To(Equal(approverID))
		})

		It("returns the not-found sentinel for a missing id", func() {
			_, err := repo.GetByID(ctx, 9999)
			Expect(err).To(Equal(internal.ErrLeaveNotFound))
		})
	})

	Describe("GetByIDForUpdate", func() {
		It("reads the row without the locking clause on sqlite", func() {
			req := newRequest(1, nil)
			Expect(repo.Create(ctx, req)).To(Succeed())

			got, err := repo.GetByIDForUpdate(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(req.ID))
		})
	})

	Describe("UpdateDecision", func() {
		It("persists a finalized decision", func() {
			approverID := int64(10)
			req := newRequest(1, &approverID)
			Expect(repo.Create(ctx, req)).To(Succeed())

			req.FinalizeApproved()
			Expect(repo.UpdateDecision(ctx, req)).To(Succeed())

			got, err := repo.GetByID(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(leave.StatusApproved))
			Expect(got.CurrentApproverID).To(BeNil())
			Expect(got.DecidedAt).NotTo(BeNil())
		})

		It("persists an escalation to a new approver", func() {
			approverID := int64(10)
			req := newRequest(1, &approverID)
			Expect(repo.Create(ctx, req)).To(Succeed())

			req.Escalate(20)
			Expect(repo.UpdateDecision(ctx, req)).To(Succeed())

			got, err := repo.GetByID(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(leave.StatusPending))
			Expect(*got.CurrentApproverID).To(Equal(int64(20)))
		})
	})

	Describe("approval ledger", func() {
		It("appends entries and lists them in insertion order", func() {
			req := newRequest(1, nil)
			Expect(repo.Create(ctx, req)).To(Succeed())

			first := &leave.ApprovalEntry{LeaveRequestID: req.ID, ActorID: 10, ActorName: "Dimas", ActorRole: "department_head", Decision: leave.DecisionApproved}
			second := &leave.ApprovalEntry{LeaveRequestID: req.ID, ActorID: 20, ActorName: "Sari", ActorRole: "human_resources", Decision: leave.DecisionApproved, Note: "ok"}
			Expect(repo.AppendApproval(ctx, first)).To(Succeed())
			Expect(repo.AppendApproval(ctx, second)).To(Succeed())

			entries, err := repo.ListApprovals(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].ActorID).To(Equal(int64(10)))
			Expect(entries[1].ActorID).To(Equal(int64(20)))
			Expect(entries[1].Note).To(Equal("ok"))
			Expect(entries[0].RecordedAt).NotTo(BeZero())
		})
	})

	Describe("DecrementLeaveBalance", func() {
		createUser := func(balance int) int64 {
			u := &userDatamodel.User{
				Email:        "agus@orgops.dev",
				Name:         "Agus",
				Role:         "general_staff",
				LeaveBalance: balance,
				ConductScore: 100,
				IsActive:     true,
			}
			Expect(db.Create(u).Error).To(Succeed())
			return u.ID
		}

		It("deducts exactly one day", func() {
			id := createUser(12)

			Expect(repo.DecrementLeaveBalance(ctx, id)).To(Succeed())

			var u userDatamodel.User
			Expect(db.First(&u, id).Error).To(Succeed())
			Expect(u.LeaveBalance).To(Equal(11))
		})

		It("clamps at zero instead of going negative", func() {
			id := createUser(0)

			Expect(repo.DecrementLeaveBalance(ctx, id)).To(Succeed())

			var u userDatamodel.User
			Expect(db.First(&u, id).Error).To(Succeed())
			Expect(u.LeaveBalance).To(Equal(0))
		})
	})

	Describe("Transact", func() {
		It("rolls back every write when the function fails", func() {
			req := newRequest(1, nil)
			Expect(repo.Create(ctx, req)).To(Succeed())

			err := repo.Transact(ctx, func(tx leave.Repository) error {
				if err := tx.AppendApproval(ctx, &leave.ApprovalEntry{LeaveRequestID: req.ID, ActorID: 10, ActorName: "Dimas", ActorRole: "department_head", Decision: leave.DecisionApproved}); err != nil {
					return err
				}
				req.FinalizeApproved()
				if err := tx.UpdateDecision(ctx, req); err != nil {
					return err
				}
				return internal.ErrLeaveAlreadyDecided
			})
			Expect(err).To(HaveOccurred())

			got, err := repo.GetByID(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(leave.StatusPending))

			entries, err := repo.ListApprovals(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("commits every write when the function succeeds", func() {
			req := newRequest(1, nil)
			Expect(repo.Create(ctx, req)).To(Succeed())

			err := repo.Transact(ctx, func(tx leave.Repository) error {
				req.FinalizeRejected()
				return tx.UpdateDecision(ctx, req)
			})
			Expect(err).NotTo(HaveOccurred())

			got, err := repo.GetByID(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(leave.StatusRejected))
		})
	})
})
