package store_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hackvision/vision/internal/store"
	"github.com/hackvision/vision/internal/store/model"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

var _ = Describe("job store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db

		Expect(s.InitialMigration()).To(Succeed())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM review_jobs;")
	})

	newJob := func(userID string) *model.ReviewJob {
		job, err := s.Job().Create(context.TODO(), model.NewReviewJob(userID, "base-1", "Submissions", "rec123", nil))
		Expect(err).To(BeNil())
		return job
	}

	Context("create and get", func() {
		It("creates a running job with an empty step log", func() {
			job := newJob("user-1")

			stored, err := s.Job().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.JobStatusRunning))
			Expect(stored.UserID).To(Equal("user-1"))
			Expect(string(stored.Details)).To(MatchJSON(`{"steps":[]}`))
			Expect(stored.CompletedAt).To(BeNil())
		})

		It("returns not found for an unknown id", func() {
			_, err := s.Job().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("append step", func() {
		It("persists the growing snapshot and the progress marker", func() {
			job := newJob("user-1")

			details, _ := json.Marshal(map[string]any{"steps": []map[string]any{{"name": "url_validation", "status": "completed"}}})
			Expect(s.Job().AppendStep(context.TODO(), job.ID, "url_validation", details)).To(Succeed())

			stored, err := s.Job().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(stored.CurrentStep).To(Equal("url_validation"))
			Expect(stored.Details).To(MatchJSON(details))
		})

		It("refuses to touch a terminal job", func() {
			job := newJob("user-1")
			Expect(s.Job().SetTerminal(context.TODO(), job.ID, model.JobStatusFailed, "project_test", nil, []byte(`{"steps":[]}`))).To(Succeed())

			err := s.Job().AppendStep(context.TODO(), job.ID, "commit_analysis", []byte(`{"steps":[]}`))
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("terminal transition", func() {
		It("sets status, result and completed_at in one write", func() {
			job := newJob("user-1")

			result := []byte(`{"status":"Approved","confidence_score":8}`)
			Expect(s.Job().SetTerminal(context.TODO(), job.ID, model.JobStatusCompleted, "final_decision", result, []byte(`{"steps":[]}`))).To(Succeed())

			stored, err := s.Job().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.JobStatusCompleted))
			Expect(stored.CompletedAt).ToNot(BeNil())
			Expect(stored.Result).To(MatchJSON(result))
		})

		It("rejects a non-terminal status", func() {
			job := newJob("user-1")
			err := s.Job().SetTerminal(context.TODO(), job.ID, model.JobStatusRunning, "x", nil, nil)
			Expect(err).ToNot(BeNil())
		})

		It("cannot terminate twice", func() {
			job := newJob("user-1")
			Expect(s.Job().SetTerminal(context.TODO(), job.ID, model.JobStatusCancelled, "duplicate_check", nil, []byte(`{"steps":[]}`))).To(Succeed())

			err := s.Job().SetTerminal(context.TODO(), job.ID, model.JobStatusCompleted, "final_decision", nil, []byte(`{"steps":[]}`))
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("cancellation flag", func() {
		It("is settable on running jobs and readable afterwards", func() {
			job := newJob("user-1")

			requested, err := s.Job().CancelRequested(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(requested).To(BeFalse())

			Expect(s.Job().RequestCancel(context.TODO(), job.ID)).To(Succeed())

			requested, err = s.Job().CancelRequested(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(requested).To(BeTrue())
		})

		It("cannot be set on a terminal job", func() {
			job := newJob("user-1")
			Expect(s.Job().SetTerminal(context.TODO(), job.ID, model.JobStatusCompleted, "final_decision", []byte(`{}`), []byte(`{"steps":[]}`))).To(Succeed())

			err := s.Job().RequestCancel(context.TODO(), job.ID)
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("list", func() {
		It("filters by user and status", func() {
			a := newJob("user-1")
			newJob("user-2")
			b := newJob("user-1")
			Expect(s.Job().SetTerminal(context.TODO(), b.ID, model.JobStatusFailed, "project_test", nil, []byte(`{"steps":[]}`))).To(Succeed())

			running, err := s.Job().List(context.TODO(),
				store.NewJobQueryFilter().ByUserID("user-1").ByStatus(model.JobStatusRunning),
				store.NewJobQueryOptions().WithSortOrder(store.SortByNewest))
			Expect(err).To(BeNil())
			Expect(running).To(HaveLen(1))
			Expect(running[0].ID).To(Equal(a.ID))

			terminal, err := s.Job().List(context.TODO(),
				store.NewJobQueryFilter().ByUserID("user-1").ByStatuses([]string{model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled}),
				store.NewJobQueryOptions().WithLimit(10))
			Expect(err).To(BeNil())
			Expect(terminal).To(HaveLen(1))
			Expect(terminal[0].ID).To(Equal(b.ID))
		})
	})

	Context("delete", func() {
		It("removes terminal jobs only", func() {
			job := newJob("user-1")

			err := s.Job().Delete(context.TODO(), job.ID)
			Expect(err).To(MatchError(store.ErrRecordNotFound), "running jobs are protected")

			Expect(s.Job().SetTerminal(context.TODO(), job.ID, model.JobStatusCompleted, "final_decision", []byte(`{}`), []byte(`{"steps":[]}`))).To(Succeed())
			Expect(s.Job().Delete(context.TODO(), job.ID)).To(Succeed())

			_, err = s.Job().Get(context.TODO(), job.ID)
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})
})
