package projectstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/reviewhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrFinalized is returned when a write targets an accepted or rejected project.
	ErrFinalized = errors.New("project has already been finalized")
	// ErrNothingToDecide is returned by Decide when the project has no
	// assigned reviewer and no review.
	ErrNothingToDecide = errors.New("project has no assigned reviewer or review")
)

var finalStatuses = bson.A{models.StatusAccepted, models.StatusRejected}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

// Create inserts a new project with status submitted unless one is given.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	now := time.Now()
	p.ID = primitive.NewObjectID()
	if p.Status == "" {
		p.Status = models.StatusSubmitted
	}
	if p.SubmittedAt.IsZero() {
		p.SubmittedAt = now
	}
	if p.AssignedReviewers == nil {
		p.AssignedReviewers = []primitive.ObjectID{}
	}
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// GetByID loads a project. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Filter narrows List. Zero values are ignored.
type Filter struct {
	AssignedTo  *primitive.ObjectID
	SubmittedBy *primitive.ObjectID
	Status      string
}

// List returns matching projects, newest submission first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Project, error) {
	q := bson.M{}
	if f.AssignedTo != nil {
		q["assigned_reviewers"] = *f.AssignedTo
	}
	if f.SubmittedBy != nil {
		q["submitted_by"] = *f.SubmittedBy
	}
	if f.Status != "" {
		q["status"] = f.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Project{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// updateOpen applies update to a project that is not finalized and returns
// the updated document. When nothing matched it reports why.
func (s *Store) updateOpen(ctx context.Context, id primitive.ObjectID, extra bson.M, update bson.M) (*models.Project, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$nin": finalStatuses}}
	for k, v := range extra {
		filter[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Project
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	cur, gerr := s.GetByID(ctx, id)
	if gerr != nil {
		return nil, gerr
	}
	if cur.IsFinal() {
		return nil, ErrFinalized
	}
	if extra != nil {
		return nil, ErrNothingToDecide
	}
	// Finalized and reopened between the two reads; report it as finalized.
	return nil, ErrFinalized
}

// Assign adds reviewerID to assigned_reviewers. Assigning twice is a no-op.
func (s *Store) Assign(ctx context.Context, id, reviewerID primitive.ObjectID) (*models.Project, error) {
	return s.updateOpen(ctx, id, nil, bson.M{
		"$addToSet": bson.M{"assigned_reviewers": reviewerID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
}

// Unassign removes reviewerID from assigned_reviewers. Removing an absent id is a no-op.
func (s *Store) Unassign(ctx context.Context, id, reviewerID primitive.ObjectID) (*models.Project, error) {
	return s.updateOpen(ctx, id, nil, bson.M{
		"$pull": bson.M{"assigned_reviewers": reviewerID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
}

// Decide sets a final status. The filter only matches open projects with at
// least one assigned reviewer or review, so two concurrent decisions cannot
// both succeed.
func (s *Store) Decide(ctx context.Context, id primitive.ObjectID, status string) (*models.Project, error) {
	if !models.IsFinalStatus(status) {
		return nil, errors.New("decision status must be accepted or rejected")
	}
	now := time.Now()
	return s.updateOpen(ctx, id,
		bson.M{"$or": bson.A{
			bson.M{"assigned_reviewers.0": bson.M{"$exists": true}},
			bson.M{"reviews.0": bson.M{"$exists": true}},
		}},
		bson.M{"$set": bson.M{
			"status":     status,
			"decided_at": now,
			"updated_at": now,
		}},
	)
}

// AddReview appends a review. Returns the stored review.
func (s *Store) AddReview(ctx context.Context, id primitive.ObjectID, r models.Review) (models.Review, error) {
	r.ID = primitive.NewObjectID()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"reviews": r},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return models.Review{}, err
	}
	if res.MatchedCount == 0 {
		return models.Review{}, mongo.ErrNoDocuments
	}
	return r, nil
}

// SetSubmitter points submitted_by at userID and copies email into client_email.
func (s *Store) SetSubmitter(ctx context.Context, id, userID primitive.ObjectID, email string) (*models.Project, error) {
	set := bson.M{"submitted_by": userID, "updated_at": time.Now()}
	if email != "" {
		set["client_email"] = email
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Project
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update holds the editable project fields. Title, Client, Summary and
// ClientEmail are always replaced; Status and File only when non-nil.
type Update struct {
	Title       string
	Client      string
	Summary     string
	ClientEmail string
	Status      *string
	File        *models.UploadedFile
}

// Update replaces the editable fields and returns the updated project.
// When Status is set the project must still be open, otherwise ErrFinalized.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Project, error) {
	set := bson.M{
		"title":        upd.Title,
		"client":       upd.Client,
		"summary":      upd.Summary,
		"client_email": upd.ClientEmail,
		"updated_at":   time.Now(),
	}
	if upd.File != nil {
		set["file"] = upd.File
	}
	if upd.Status != nil {
		// A status change must not reopen a project finalized since it was read.
		set["status"] = *upd.Status
		return s.updateOpen(ctx, id, nil, bson.M{"$set": set})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Project
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a project. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
