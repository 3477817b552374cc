package projectstore_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	projectstore "github.com/dalemusser/reviewhub/internal/app/store/projects"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	"github.com/dalemusser/reviewhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Project{
		Title:   "Solar Farm",
		Client:  "Acme",
		Summary: "<p>Plan</p>",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != models.StatusSubmitted {
		t.Errorf("Status: got %q, want submitted", created.Status)
	}
	if created.SubmittedAt.IsZero() {
		t.Error("expected SubmittedAt to be set")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Solar Farm" || got.Client != "Acme" || got.Summary != "<p>Plan</p>" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.AssignedReviewers == nil || got.Reviews == nil {
		t.Error("expected empty, non-nil slices")
	}
	if got.SubmittedBy != nil {
		t.Errorf("SubmittedBy: got %v, want nil", got.SubmittedBy)
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_List_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	rv := primitive.NewObjectID()
	now := time.Now().UTC()

	older := fixtures.CreateProjectWith(ctx, models.Project{Title: "Older", SubmittedBy: &user, SubmittedAt: now.Add(-time.Hour)})
	newer := fixtures.CreateProjectWith(ctx, models.Project{Title: "Newer", SubmittedBy: &user, SubmittedAt: now, Status: models.StatusInReview})
	fixtures.CreateProjectWith(ctx, models.Project{Title: "Assigned", AssignedReviewers: []primitive.ObjectID{rv}, SubmittedAt: now.Add(-2 * time.Hour)})

	all, err := store.List(ctx, projectstore.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != newer.ID {
		t.Fatalf("expected 3 projects newest first, got %d", len(all))
	}

	mine, _ := store.List(ctx, projectstore.Filter{SubmittedBy: &user})
	if len(mine) != 2 || mine[1].ID != older.ID {
		t.Errorf("submittedBy filter: got %d", len(mine))
	}

	assigned, _ := store.List(ctx, projectstore.Filter{AssignedTo: &rv})
	if len(assigned) != 1 || assigned[0].Title != "Assigned" {
		t.Errorf("assignedTo filter: got %+v", assigned)
	}

	inReview, _ := store.List(ctx, projectstore.Filter{Status: models.StatusInReview})
	if len(inReview) != 1 || inReview[0].ID != newer.ID {
		t.Errorf("status filter: got %+v", inReview)
	}
}

func TestStore_AssignIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateProject(ctx, "P", nil)
	rv := primitive.NewObjectID()

	for i := 0; i < 2; i++ {
		got, err := store.Assign(ctx, p.ID, rv)
		if err != nil {
			t.Fatalf("Assign #%d failed: %v", i+1, err)
		}
		if len(got.AssignedReviewers) != 1 {
			t.Fatalf("Assign #%d: expected 1 reviewer, got %d", i+1, len(got.AssignedReviewers))
		}
	}
}

func TestStore_ConcurrentAssignNoDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateProject(ctx, "P", nil)
	rv := primitive.NewObjectID()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Assign(ctx, p.ID, rv)
		}()
	}
	wg.Wait()

	got, _ := store.GetByID(ctx, p.ID)
	if len(got.AssignedReviewers) != 1 {
		t.Errorf("expected exactly one entry, got %v", got.AssignedReviewers)
	}
}

func TestStore_UnassignAbsentIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	keep := primitive.NewObjectID()
	p := fixtures.CreateProjectWith(ctx, models.Project{AssignedReviewers: []primitive.ObjectID{keep}})

	got, err := store.Unassign(ctx, p.ID, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Unassign failed: %v", err)
	}
	if len(got.AssignedReviewers) != 1 || got.AssignedReviewers[0] != keep {
		t.Errorf("unexpected reviewers %v", got.AssignedReviewers)
	}

	got, _ = store.Unassign(ctx, p.ID, keep)
	if len(got.AssignedReviewers) != 0 {
		t.Errorf("expected empty reviewers, got %v", got.AssignedReviewers)
	}
}

func TestStore_Decide(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bare := fixtures.CreateProject(ctx, "Bare", nil)
	if _, err := store.Decide(ctx, bare.ID, models.StatusAccepted); !errors.Is(err, projectstore.ErrNothingToDecide) {
		t.Fatalf("expected ErrNothingToDecide, got %v", err)
	}
	unchanged, _ := store.GetByID(ctx, bare.ID)
	if unchanged.Status != models.StatusSubmitted {
		t.Errorf("status should be unchanged, got %q", unchanged.Status)
	}

	withReview := fixtures.CreateProjectWith(ctx, models.Project{
		Reviews: []models.Review{{ID: primitive.NewObjectID(), ReviewerName: "Reviewer", Comment: "ok"}},
	})
	got, err := store.Decide(ctx, withReview.ID, models.StatusRejected)
	if err != nil {
		t.Fatalf("Decide with review failed: %v", err)
	}
	if got.Status != models.StatusRejected || got.DecidedAt == nil {
		t.Errorf("unexpected decided project %+v", got)
	}

	if _, err := store.Decide(ctx, withReview.ID, models.StatusAccepted); !errors.Is(err, projectstore.ErrFinalized) {
		t.Errorf("expected ErrFinalized on second decision, got %v", err)
	}
	if _, err := store.Assign(ctx, withReview.ID, primitive.NewObjectID()); !errors.Is(err, projectstore.ErrFinalized) {
		t.Errorf("expected ErrFinalized on assign, got %v", err)
	}
	if _, err := store.Unassign(ctx, withReview.ID, primitive.NewObjectID()); !errors.Is(err, projectstore.ErrFinalized) {
		t.Errorf("expected ErrFinalized on unassign, got %v", err)
	}

	if _, err := store.Decide(ctx, primitive.NewObjectID(), models.StatusAccepted); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
	if _, err := store.Decide(ctx, bare.ID, models.StatusInReview); err == nil {
		t.Error("expected error for non-final decision status")
	}
}

func TestStore_AddReview(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateProject(ctx, "P", nil)
	rv := primitive.NewObjectID()

	first, err := store.AddReview(ctx, p.ID, models.Review{ReviewerID: &rv, ReviewerName: "R", Comment: "first"})
	if err != nil {
		t.Fatalf("AddReview failed: %v", err)
	}
	if first.ID.IsZero() || first.CreatedAt.IsZero() {
		t.Error("expected id and timestamp on review")
	}
	_, _ = store.AddReview(ctx, p.ID, models.Review{ReviewerName: "R", Comment: "second"})

	got, _ := store.GetByID(ctx, p.ID)
	if len(got.Reviews) != 2 || got.Reviews[0].Comment != "first" || got.Reviews[1].Comment != "second" {
		t.Errorf("reviews out of order: %+v", got.Reviews)
	}

	if _, err := store.AddReview(ctx, primitive.NewObjectID(), models.Review{}); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_UpdateSetSubmitterDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateProject(ctx, "P", nil)
	status := models.StatusInReview
	file := &models.UploadedFile{URL: "/files/x.pdf", PublicID: "x.pdf", OriginalName: "x.pdf"}

	got, err := store.Update(ctx, p.ID, projectstore.Update{
		Title:       "P2",
		Client:      "Client",
		Summary:     "<p>new</p>",
		ClientEmail: "c@example.com",
		Status:      &status,
		File:        file,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Title != "P2" || got.Status != models.StatusInReview || got.File == nil || got.File.PublicID != "x.pdf" {
		t.Errorf("unexpected project after update: %+v", got)
	}

	uid := primitive.NewObjectID()
	got, err = store.SetSubmitter(ctx, p.ID, uid, "owner@example.com")
	if err != nil {
		t.Fatalf("SetSubmitter failed: %v", err)
	}
	if got.SubmittedBy == nil || *got.SubmittedBy != uid || got.ClientEmail != "owner@example.com" {
		t.Errorf("unexpected submitter fields: %+v", got)
	}

	n, err := store.Delete(ctx, p.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	if _, err := store.Update(ctx, p.ID, projectstore.Update{}); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments after delete, got %v", err)
	}
}

func TestStore_UpdateStatusCannotReopenFinalized(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateProjectWith(ctx, models.Project{Title: "Done", Status: models.StatusAccepted})
	reopen := models.StatusInReview

	_, err := store.Update(ctx, p.ID, projectstore.Update{Title: "Reopened", Summary: "s", Status: &reopen})
	if !errors.Is(err, projectstore.ErrFinalized) {
		t.Fatalf("expected ErrFinalized, got %v", err)
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.Status != models.StatusAccepted || got.Title != "Done" {
		t.Errorf("finalized project was modified: %+v", got)
	}

	// Field edits without a status change still apply.
	got, err = store.Update(ctx, p.ID, projectstore.Update{Title: "Renamed", Summary: "s"})
	if err != nil {
		t.Fatalf("Update without status failed: %v", err)
	}
	if got.Title != "Renamed" || got.Status != models.StatusAccepted {
		t.Errorf("unexpected project after field edit: %+v", got)
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), projectstore.Update{Status: &reopen}); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_ConcurrentDecideAndStatusUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 10; i++ {
		p := fixtures.CreateProjectWith(ctx, models.Project{
			Title:   "Race",
			Reviews: []models.Review{{ID: primitive.NewObjectID(), ReviewerName: "R", Comment: "ok"}},
		})
		reopen := models.StatusInReview

		var wg sync.WaitGroup
		var decideErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, decideErr = store.Decide(ctx, p.ID, models.StatusAccepted)
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Update(ctx, p.ID, projectstore.Update{Title: "Race", Summary: "s", Status: &reopen})
		}()
		wg.Wait()

		if decideErr != nil {
			t.Fatalf("Decide failed: %v", decideErr)
		}
		got, _ := store.GetByID(ctx, p.ID)
		if got.Status != models.StatusAccepted {
			t.Fatalf("iteration %d: decided project ended as %q", i, got.Status)
		}
	}
}
