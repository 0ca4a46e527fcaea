package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/richn23/student-voice/internal/model"
)

// SurveyRepo provides read access to surveys and their published questions
type SurveyRepo interface {
	GetByID(ctx context.Context, id string) (*model.Survey, error)
	GetVersion(ctx context.Context, versionID string) (*model.SurveyVersion, error)
	GetQuestions(ctx context.Context, surveyID, versionID string) ([]model.Question, error)
	Create(ctx context.Context, survey *model.Survey) error
	CreateVersion(ctx context.Context, version *model.SurveyVersion) error
	CreateQuestion(ctx context.Context, question *model.Question) error
}

type surveyRepo struct {
	surveys   *mongo.Collection
	versions  *mongo.Collection
	questions *mongo.Collection
}

// NewSurveyRepo creates a new survey repository
func NewSurveyRepo(db *mongo.Database) SurveyRepo {
	return &surveyRepo{
		surveys:   db.Collection("surveys"),
		versions:  db.Collection("survey_versions"),
		questions: db.Collection("questions"),
	}
}

func (r *surveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	var survey model.Survey
	if err := r.surveys.FindOne(ctx, bson.M{"_id": id}).Decode(&survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *surveyRepo) GetVersion(ctx context.Context, versionID string) (*model.SurveyVersion, error) {
	var version model.SurveyVersion
	if err := r.versions.FindOne(ctx, bson.M{"_id": versionID}).Decode(&version); err != nil {
		return nil, err
	}
	return &version, nil
}

// GetQuestions returns the version's questions in their authored order
func (r *surveyRepo) GetQuestions(ctx context.Context, surveyID, versionID string) ([]model.Question, error) {
	cursor, err := r.questions.Find(ctx,
		bson.M{"surveyId": surveyID, "versionId": versionID},
		options.Find().SetSort(bson.D{{Key: "order", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []model.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *surveyRepo) Create(ctx context.Context, survey *model.Survey) error {
	_, err := r.surveys.InsertOne(ctx, survey)
	return err
}

func (r *surveyRepo) CreateVersion(ctx context.Context, version *model.SurveyVersion) error {
	_, err := r.versions.InsertOne(ctx, version)
	return err
}

func (r *surveyRepo) CreateQuestion(ctx context.Context, question *model.Question) error {
	_, err := r.questions.InsertOne(ctx, question)
	return err
}
