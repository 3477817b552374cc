package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/reviewhub/internal/app/system/normalize"
	"github.com/dalemusser/reviewhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when an insert or update collides with an existing email.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "user"|"reviewer"|"admin"`)
)

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing and validating fields.
// PasswordHash must already be set by the caller.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.NameCI = normalize.SortKey(u.FullName())
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if !validRole(u.Role) {
		return models.User{}, errBadRole
	}

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

func validRole(r string) bool {
	switch r {
	case models.RoleUser, models.RoleReviewer, models.RoleAdmin:
		return true
	}
	return false
}

// List returns every user sorted by folded name.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByIDs returns the users with the given ids keyed by id. Missing ids
// are simply absent from the map.
func (s *Store) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// Update holds the profile fields a user (or admin) may change. Nil fields
// are left untouched.
type Update struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Organization *string
	FieldOfStudy *string
	Role         *string
}

// Update applies upd and returns the updated user. Returns
// mongo.ErrNoDocuments when id does not exist and ErrDuplicateEmail when the
// new email is taken.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.User, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	first, last := cur.FirstName, cur.LastName
	set := bson.M{"updated_at": time.Now()}
	if upd.FirstName != nil {
		first = normalize.Name(*upd.FirstName)
		set["first_name"] = first
	}
	if upd.LastName != nil {
		last = normalize.Name(*upd.LastName)
		set["last_name"] = last
	}
	set["name_ci"] = normalize.SortKey(models.User{FirstName: first, LastName: last}.FullName())
	if upd.Email != nil {
		set["email"] = normalize.Email(*upd.Email)
	}
	if upd.Organization != nil {
		set["organization"] = normalize.Name(*upd.Organization)
	}
	if upd.FieldOfStudy != nil {
		set["field_of_study"] = normalize.Name(*upd.FieldOfStudy)
	}
	if upd.Role != nil {
		role := normalize.Role(*upd.Role)
		if !validRole(role) {
			return nil, errBadRole
		}
		set["role"] = role
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
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

// Delete removes a user. Projects that reference the user keep the dangling id.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureAdmin creates an admin with the given email and password hash, or
// promotes an existing account with that email to admin. The stored
// password of an existing account is left alone. Reports whether a new
// account was inserted.
func (s *Store) EnsureAdmin(ctx context.Context, email, hash string) (bool, error) {
	email = normalize.Email(email)
	now := time.Now()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$set": bson.M{"role": models.RoleAdmin, "updated_at": now},
			"$setOnInsert": bson.M{
				"first_name": "Admin",
				"last_name":  "",
				"name_ci":    normalize.SortKey("Admin"),
				"password":   hash,
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}
