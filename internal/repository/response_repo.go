package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/richn23/student-voice/internal/model"
)

// ResponseRepo is the append-only write surface for validated responses.
// At-most-once-per-key is enforced by the conversation engine's answered-set,
// not here.
type ResponseRepo interface {
	Append(ctx context.Context, response *model.Response) error
	GetBySessionID(ctx context.Context, sessionID string) ([]*model.Response, error)
}

type responseRepo struct {
	collection *mongo.Collection
}

// NewResponseRepo creates a new response repository
func NewResponseRepo(db *mongo.Database) ResponseRepo {
	return &responseRepo{
		collection: db.Collection("responses"),
	}
}

func (r *responseRepo) Append(ctx context.Context, response *model.Response) error {
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now()
	}
	if response.ID == "" {
		response.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, response)
	return err
}

func (r *responseRepo) GetBySessionID(ctx context.Context, sessionID string) ([]*model.Response, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []*model.Response
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}
