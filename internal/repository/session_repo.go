package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/richn23/student-voice/internal/model"
)

// SessionRepo persists conversation sessions
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	MarkComplete(ctx context.Context, id string, completedAt time.Time) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) MarkComplete(ctx context.Context, id string, completedAt time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"completedAt": completedAt}},
	)
	return err
}
