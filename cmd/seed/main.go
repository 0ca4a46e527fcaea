package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/richn23/student-voice/internal/config"
	"github.com/richn23/student-voice/internal/model"
	"github.com/richn23/student-voice/internal/repository"
)

// tokenChars omits characters easy to misread on a printed handout
const tokenChars = "abcdefghjkmnpqrstuvwxyz23456789"

func generateToken() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = tokenChars[rand.Intn(len(tokenChars))]
	}
	return string(b)
}

type questionDef struct {
	qKey   string
	qType  model.QuestionType
	prompt string
	config model.QuestionConfig
}

type sectionDef struct {
	title     string
	questions []questionDef
}

func intPtr(v int) *int { return &v }

func scaleConfig() model.QuestionConfig {
	return model.QuestionConfig{
		Min: intPtr(0), Max: intPtr(3),
		LowLabel: "Strongly disagree", HighLabel: "Strongly agree",
	}
}

var sections = []sectionDef{
	{
		title: "Learning Environment",
		questions: []questionDef{
			{"q_0001", model.QuestionTypeScale, "The classroom is comfortable and well-equipped", scaleConfig()},
			{"q_0002", model.QuestionTypeScale, "I have access to the materials I need", scaleConfig()},
			{"q_0003", model.QuestionTypeSlider, "How would you rate the overall learning space?", model.QuestionConfig{Min: intPtr(0), Max: intPtr(100), LowLabel: "Poor", HighLabel: "Excellent"}},
			{"q_0004", model.QuestionTypeOpenText, "Any comments about the learning environment?", model.QuestionConfig{}},
		},
	},
	{
		title: "Learning Experience",
		questions: []questionDef{
			{"q_0005", model.QuestionTypeScale, "The class activities are engaging and useful", scaleConfig()},
			{"q_0006", model.QuestionTypeScale, "The homework helps me learn", scaleConfig()},
			{"q_0007", model.QuestionTypeScale, "I feel I am making good progress", scaleConfig()},
			{"q_0008", model.QuestionTypeChoice, "What helps you learn the most?", model.QuestionConfig{Options: []string{"Group work", "Teacher explanations", "Practice exercises", "Real-world examples"}, SelectMode: model.SelectSingle}},
			{"q_0009", model.QuestionTypeOpenText, "Any comments about your learning experience?", model.QuestionConfig{}},
		},
	},
	{
		title: "Teaching Quality",
		questions: []questionDef{
			{"q_0010", model.QuestionTypeScale, "The teacher explains things clearly", scaleConfig()},
			{"q_0011", model.QuestionTypeScale, "The teacher gives useful feedback", scaleConfig()},
			{"q_0012", model.QuestionTypeScale, "The pace of lessons is right for me", scaleConfig()},
			{"q_0013", model.QuestionTypeNPS, "How likely are you to recommend this class to a friend?", model.QuestionConfig{Min: intPtr(0), Max: intPtr(10), LowLabel: "Not likely", HighLabel: "Very likely"}},
			{"q_0014", model.QuestionTypeOpenText, "What could the teacher improve?", model.QuestionConfig{}},
		},
	},
	{
		title: "Student Support",
		questions: []questionDef{
			{"q_0015", model.QuestionTypeScale, "I feel supported when I have difficulties", scaleConfig()},
			{"q_0016", model.QuestionTypeScale, "The admin team is helpful and responsive", scaleConfig()},
			{"q_0017", model.QuestionTypeSlider, "How confident do you feel in this class?", model.QuestionConfig{Min: intPtr(0), Max: intPtr(100), LowLabel: "Not confident", HighLabel: "Very confident"}},
			{"q_0018", model.QuestionTypeOpenText, "Is there anything else you'd like to tell us?", model.QuestionConfig{}},
		},
	},
	{
		title: "Class Management",
		questions: []questionDef{
			{"q_0019", model.QuestionTypeScale, "The lessons are well organized", scaleConfig()},
			{"q_0020", model.QuestionTypeScale, "Class time is used well", scaleConfig()},
			{"q_0021", model.QuestionTypeScale, "The teacher is fair to all students", scaleConfig()},
			{"q_0022", model.QuestionTypeChoice, "What does the teacher do best?", model.QuestionConfig{Options: []string{"Clear explanations", "Good examples", "Patient with questions", "Makes learning fun"}, SelectMode: model.SelectSingle}},
			{"q_0023", model.QuestionTypeOpenText, "Any other comments?", model.QuestionConfig{}},
		},
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB)
	surveys := repository.NewSurveyRepo(db)
	deployments := repository.NewDeploymentRepo(db)

	now := time.Now()

	survey := &model.Survey{
		ID:                       primitive.NewObjectID().Hex(),
		Title:                    "Student Feedback - General",
		Slug:                     "student-feedback-general",
		Description:              "Collect feedback across all areas of the student experience",
		ToneProfile:              model.ToneFriendly,
		LanguageSelectionEnabled: true,
		Intro:                    "Your feedback helps us improve. All answers are anonymous and take about 5 minutes.",
		CompletionMessage:        "Thank you for sharing your thoughts. Your feedback directly shapes how we teach and support our students.",
		Status:                   "live",
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := surveys.Create(ctx, survey); err != nil {
		log.Fatalf("Failed to create survey: %v", err)
	}
	fmt.Printf("Survey: %s\n", survey.ID)

	version := &model.SurveyVersion{
		ID:            primitive.NewObjectID().Hex(),
		SurveyID:      survey.ID,
		VersionNumber: 1,
		Status:        "published",
		PublishedAt:   &now,
	}
	if err := surveys.CreateVersion(ctx, version); err != nil {
		log.Fatalf("Failed to create version: %v", err)
	}
	fmt.Printf("Version: %s\n", version.ID)

	order := 0
	for si, sec := range sections {
		sectionID := fmt.Sprintf("sec_%d", si+1)
		for _, def := range sec.questions {
			q := &model.Question{
				ID:           primitive.NewObjectID().Hex(),
				SurveyID:     survey.ID,
				VersionID:    version.ID,
				QKey:         def.qKey,
				Type:         def.qType,
				Prompt:       model.TranslatedText{"en": def.prompt},
				SectionID:    sectionID,
				SectionTitle: model.TranslatedText{"en": sec.title},
				Order:        order,
				Required:     def.qType != model.QuestionTypeOpenText,
				Config:       def.config,
			}
			if err := surveys.CreateQuestion(ctx, q); err != nil {
				log.Fatalf("Failed to create question %s: %v", def.qKey, err)
			}
			order++
		}
	}
	fmt.Printf("Questions: %d across %d sections\n", order, len(sections))

	for _, mode := range []model.DeliveryMode{model.DeliveryForm, model.DeliveryChatbot} {
		deployment := &model.Deployment{
			ID:           primitive.NewObjectID().Hex(),
			SurveyID:     survey.ID,
			VersionID:    version.ID,
			Token:        generateToken(),
			Label:        fmt.Sprintf("Seed %s deployment", mode),
			Campus:       "Main",
			Status:       model.DeploymentLive,
			DeliveryMode: mode,
			CreatedAt:    now,
		}
		if err := deployments.Create(ctx, deployment); err != nil {
			log.Fatalf("Failed to create deployment: %v", err)
		}
		fmt.Printf("Deployment (%s): token=%s\n", mode, deployment.Token)
	}

	fmt.Println("Seed complete")
}
