package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/richn23/student-voice/internal/model"
)

// ErrDeploymentNotFound is returned when no live deployment matches a token
var ErrDeploymentNotFound = errors.New("deployment not found")

// DeploymentRepo resolves deployment tokens
type DeploymentRepo interface {
	GetByToken(ctx context.Context, token string) (*model.Deployment, error)
	Create(ctx context.Context, deployment *model.Deployment) error
}

type deploymentRepo struct {
	collection *mongo.Collection
}

// NewDeploymentRepo creates a new deployment repository
func NewDeploymentRepo(db *mongo.Database) DeploymentRepo {
	return &deploymentRepo{
		collection: db.Collection("deployments"),
	}
}

// GetByToken returns the live deployment for a token. Paused or missing
// tokens both resolve to ErrDeploymentNotFound so callers cannot tell the
// difference from the outside.
func (r *deploymentRepo) GetByToken(ctx context.Context, token string) (*model.Deployment, error) {
	var deployment model.Deployment
	err := r.collection.FindOne(ctx, bson.M{"token": token, "status": model.DeploymentLive}).Decode(&deployment)
	if err == mongo.ErrNoDocuments {
		return nil, ErrDeploymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &deployment, nil
}

func (r *deploymentRepo) Create(ctx context.Context, deployment *model.Deployment) error {
	_, err := r.collection.InsertOne(ctx, deployment)
	return err
}
