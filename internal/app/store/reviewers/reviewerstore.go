package reviewerstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/reviewhub/internal/app/system/normalize"
	"github.com/dalemusser/reviewhub/internal/app/system/txn"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateEmail is returned when an insert or update collides with an existing reviewer email.
var ErrDuplicateEmail = errors.New("a reviewer with this email already exists")

type Store struct {
	c        *mongo.Collection
	projects *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("reviewers"),
		projects: db.Collection("projects"),
	}
}

// GetByID loads a reviewer. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Reviewer, error) {
	var r models.Reviewer
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetByEmail looks up a reviewer by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Reviewer, error) {
	var r models.Reviewer
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a reviewer. Role is always reviewer.
func (s *Store) Create(ctx context.Context, r models.Reviewer) (models.Reviewer, error) {
	r.ID = primitive.NewObjectID()
	r.FirstName = normalize.Name(r.FirstName)
	r.LastName = normalize.Name(r.LastName)
	r.NameCI = normalize.SortKey(r.DisplayName())
	r.Email = normalize.Email(r.Email)
	r.Title = normalize.Name(r.Title)
	r.Role = models.RoleReviewer

	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Reviewer{}, ErrDuplicateEmail
		}
		return models.Reviewer{}, err
	}
	return r, nil
}

// List returns all reviewers sorted by folded name.
func (s *Store) List(ctx context.Context) ([]models.Reviewer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Reviewer{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByIDs returns the reviewers with the given ids keyed by id.
func (s *Store) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Reviewer, error) {
	out := make(map[primitive.ObjectID]models.Reviewer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var r models.Reviewer
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out[r.ID] = r
	}
	return out, cur.Err()
}

// Update holds the fields a reviewer (or admin) may change. Nil fields are left untouched.
type Update struct {
	FirstName *string
	LastName  *string
	Email     *string
	Title     *string
}

// Update applies upd and returns the updated reviewer.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Reviewer, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *cur
	set := bson.M{"updated_at": time.Now()}
	if upd.FirstName != nil {
		next.FirstName = normalize.Name(*upd.FirstName)
		set["first_name"] = next.FirstName
	}
	if upd.LastName != nil {
		next.LastName = normalize.Name(*upd.LastName)
		set["last_name"] = next.LastName
	}
	if upd.Email != nil {
		next.Email = normalize.Email(*upd.Email)
		set["email"] = next.Email
	}
	if upd.Title != nil {
		set["title"] = normalize.Name(*upd.Title)
	}
	set["name_ci"] = normalize.SortKey(next.DisplayName())

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Reviewer
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&r); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &r, nil
}

// SetPassword replaces the stored hash. Returns mongo.ErrNoDocuments when id does not exist.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password":   hash,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes the reviewer and pulls its id from every project's
// assigned_reviewers. Reviews it wrote keep their snapshotted name.
// Returns the number of reviewers deleted and projects touched.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (deleted, unassigned int64, err error) {
	err = txn.Run(ctx, s.c.Database().Client(), func(ctx context.Context) error {
		deleted, unassigned = 0, 0
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return nil
		}
		deleted = res.DeletedCount
		upd, err := s.projects.UpdateMany(ctx,
			bson.M{"assigned_reviewers": id},
			bson.M{
				"$pull": bson.M{"assigned_reviewers": id},
				"$set":  bson.M{"updated_at": time.Now()},
			},
		)
		if err != nil {
			return err
		}
		unassigned = upd.ModifiedCount
		return nil
	})
	return deleted, unassigned, err
}
