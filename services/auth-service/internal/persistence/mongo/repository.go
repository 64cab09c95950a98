// Package mongo implements the user repository on the MongoDB driver.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/weirdname404/async-arch-course/services/auth-service/internal/domain"
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	PubID        string             `bson:"pub_id"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	Email        string             `bson:"email"`
	Name         string             `bson:"name,omitempty"`
	IsActive     bool               `bson:"is_active"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		PubID:        d.PubID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		Email:        d.Email,
		Name:         d.Name,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
	}
}

// Repository stores users in the auth service's own collection.
type Repository struct {
	users *mongo.Collection
}

// NewRepository constructs a Repository over the given database.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{users: db.Collection("users")}
}

// EnsureIndexes creates the lookup indexes used by login and CRUD paths.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "pub_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

// FindByPubID returns the user with the given pub_id, or nil when absent.
func (r *Repository) FindByPubID(ctx context.Context, pubID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"pub_id": pubID})
}

// FindByUsername returns the user with the given username, or nil when absent.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// List returns all users.
func (r *Repository) List(ctx context.Context) ([]domain.User, error) {
	cursor, err := r.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []domain.User
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		users = append(users, *doc.toDomain())
	}
	return users, cursor.Err()
}

// Insert stores a new user and returns its internal id.
func (r *Repository) Insert(ctx context.Context, user domain.User) (string, error) {
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		PubID:        user.PubID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		Email:        user.Email,
		Name:         user.Name,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID.Hex(), nil
}

// Update applies a partial $set update keyed by pub_id and reports how many
// documents matched.
func (r *Repository) Update(ctx context.Context, pubID string, patch domain.UserPatch) (int64, error) {
	set := bson.M{}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.PasswordHash != nil {
		set["password_hash"] = *patch.PasswordHash
	}
	if patch.Role != nil {
		set["role"] = *patch.Role
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.IsActive != nil {
		set["is_active"] = *patch.IsActive
	}
	if len(set) == 0 {
		return 0, nil
	}

	res, err := r.users.UpdateOne(ctx, bson.M{"pub_id": pubID}, bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete removes the user with the given pub_id and reports how many
// documents were deleted.
func (r *Repository) Delete(ctx context.Context, pubID string) (int64, error) {
	res, err := r.users.DeleteOne(ctx, bson.M{"pub_id": pubID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
