// Package mongo implements the task and shadow user repositories on the
// MongoDB driver.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/weirdname404/async-arch-course/services/task-tracker/internal/domain"
)

type taskDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	PubID         string             `bson:"pub_id"`
	Title         string             `bson:"title"`
	Description   string             `bson:"description,omitempty"`
	IsOpen        bool               `bson:"is_open"`
	AssigneePubID string             `bson:"assignee_id"`
	CreatedAt     time.Time          `bson:"created_at"`
}

func (d taskDocument) toDomain() *domain.Task {
	return &domain.Task{
		ID:            d.ID.Hex(),
		PubID:         d.PubID,
		Title:         d.Title,
		Description:   d.Description,
		IsOpen:        d.IsOpen,
		AssigneePubID: d.AssigneePubID,
		CreatedAt:     d.CreatedAt,
	}
}

// TaskRepository stores tasks in the tracker's own collection.
type TaskRepository struct {
	tasks *mongo.Collection
}

// NewTaskRepository constructs a TaskRepository over the given database.
func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{tasks: db.Collection("tasks")}
}

// EnsureIndexes creates the lookup indexes used by the task CRUD paths.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pub_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "assignee_id", Value: 1}}},
	})
	return err
}

// FindByPubID returns the task with the given pub_id, or nil when absent.
func (r *TaskRepository) FindByPubID(ctx context.Context, pubID string) (*domain.Task, error) {
	var doc taskDocument
	err := r.tasks.FindOne(ctx, bson.M{"pub_id": pubID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// List returns all tasks.
func (r *TaskRepository) List(ctx context.Context) ([]domain.Task, error) {
	cursor, err := r.tasks.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []domain.Task
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		tasks = append(tasks, *doc.toDomain())
	}
	return tasks, cursor.Err()
}

// Insert stores a new task and returns its internal id.
func (r *TaskRepository) Insert(ctx context.Context, task domain.Task) (string, error) {
	doc := taskDocument{
		ID:            primitive.NewObjectID(),
		PubID:         task.PubID,
		Title:         task.Title,
		Description:   task.Description,
		IsOpen:        task.IsOpen,
		AssigneePubID: task.AssigneePubID,
		CreatedAt:     task.CreatedAt,
	}
	if _, err := r.tasks.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID.Hex(), nil
}

// Update applies a partial $set update keyed by pub_id and reports how many
// documents matched.
func (r *TaskRepository) Update(ctx context.Context, pubID string, patch domain.TaskPatch) (int64, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.IsOpen != nil {
		set["is_open"] = *patch.IsOpen
	}
	if len(set) == 0 {
		return 0, nil
	}

	res, err := r.tasks.UpdateOne(ctx, bson.M{"pub_id": pubID}, bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete removes the task with the given pub_id and reports how many
// documents were deleted.
func (r *TaskRepository) Delete(ctx context.Context, pubID string) (int64, error) {
	res, err := r.tasks.DeleteOne(ctx, bson.M{"pub_id": pubID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

type shadowUserDocument struct {
	PubID    string `bson:"pub_id"`
	Username string `bson:"username"`
	Email    string `bson:"email"`
	Role     string `bson:"role"`
	IsActive bool   `bson:"is_active"`
}

func (d shadowUserDocument) toDomain() *domain.ShadowUser {
	return &domain.ShadowUser{
		PubID:    d.PubID,
		Username: d.Username,
		Email:    d.Email,
		Role:     d.Role,
		IsActive: d.IsActive,
	}
}

// ShadowUserRepository stores the replicated user set. Documents are keyed
// by pub_id rather than an internal id so event replays stay idempotent.
type ShadowUserRepository struct {
	users *mongo.Collection
}

// NewShadowUserRepository constructs a ShadowUserRepository over the given
// database.
func NewShadowUserRepository(db *mongo.Database) *ShadowUserRepository {
	return &ShadowUserRepository{users: db.Collection("users")}
}

// EnsureIndexes creates the pub_id and username lookup indexes.
func (r *ShadowUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pub_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}},
	})
	return err
}

// FindByPubID returns the shadow user with the given pub_id, or nil when
// absent.
func (r *ShadowUserRepository) FindByPubID(ctx context.Context, pubID string) (*domain.ShadowUser, error) {
	return r.findOne(ctx, bson.M{"pub_id": pubID})
}

// FindByUsername returns the shadow user with the given username, or nil
// when absent.
func (r *ShadowUserRepository) FindByUsername(ctx context.Context, username string) (*domain.ShadowUser, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *ShadowUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.ShadowUser, error) {
	var doc shadowUserDocument
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// Upsert replaces the shadow user keyed by pub_id, inserting when absent.
func (r *ShadowUserRepository) Upsert(ctx context.Context, user domain.ShadowUser) error {
	doc := shadowUserDocument{
		PubID:    user.PubID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		IsActive: user.IsActive,
	}
	_, err := r.users.ReplaceOne(ctx, bson.M{"pub_id": user.PubID}, doc, options.Replace().SetUpsert(true))
	return err
}

// Apply performs a partial $set update keyed by pub_id and reports how many
// documents matched.
func (r *ShadowUserRepository) Apply(ctx context.Context, pubID string, patch domain.ShadowUserPatch) (int64, error) {
	set := bson.M{}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Role != nil {
		set["role"] = *patch.Role
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

// Delete removes the shadow user with the given pub_id and reports how many
// documents were deleted.
func (r *ShadowUserRepository) Delete(ctx context.Context, pubID string) (int64, error) {
	res, err := r.users.DeleteOne(ctx, bson.M{"pub_id": pubID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
