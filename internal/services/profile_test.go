package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) StreamMessages(ctx context.Context, system string, messages []types.Message, onDelta func(string)) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeCompleter) Complete(ctx context.Context, system string, messages []types.Message) (string, error) {
	return f.reply, f.err
}

type fakeProfileRepo struct {
	upserted *types.AthleteProfile
}

func (f *fakeProfileRepo) Upsert(ctx context.Context, tx *gorm.DB, profile *types.AthleteProfile) (*types.AthleteProfile, error) {
	f.upserted = profile
	return profile, nil
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.AthleteProfile, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestInferAndUpsertStoresExtractedFields(t *testing.T) {
	llm := &fakeCompleter{reply: `{"experienceLevel": "intermediate", "weeklyMileage": "25 miles", "paceInfo": "9:30/mile easy", "injuryHistory": ""}`}
	repo := &fakeProfileRepo{}
	svc := NewProfileService(logger.NewNop(), llm, repo)
	userID := uuid.New()

	err := svc.InferAndUpsert(context.Background(), userID, []types.Message{
		{Role: types.RoleUser, Content: "I run about 25 miles a week at 9:30 pace"},
		{Role: types.RoleAssistant, Content: "Solid base."},
	})
	if err != nil {
		t.Fatalf("InferAndUpsert returned %v", err)
	}
	if repo.upserted == nil {
		t.Fatal("nothing upserted")
	}
	if repo.upserted.UserID != userID {
		t.Fatalf("user id = %s", repo.upserted.UserID)
	}
	if repo.upserted.ExperienceLevel != "intermediate" || repo.upserted.WeeklyMileage != "25 miles" {
		t.Fatalf("profile = %+v", repo.upserted)
	}
}

func TestInferAndUpsertToleratesFencedReply(t *testing.T) {
	llm := &fakeCompleter{reply: "```json\n{\"experienceLevel\": \"beginner\", \"weeklyMileage\": \"\", \"paceInfo\": \"\", \"injuryHistory\": \"\"}\n```"}
	repo := &fakeProfileRepo{}
	svc := NewProfileService(logger.NewNop(), llm, repo)

	if err := svc.InferAndUpsert(context.Background(), uuid.New(), []types.Message{
		{Role: types.RoleUser, Content: "just starting out"},
	}); err != nil {
		t.Fatalf("InferAndUpsert returned %v", err)
	}
	if repo.upserted == nil || repo.upserted.ExperienceLevel != "beginner" {
		t.Fatalf("profile = %+v", repo.upserted)
	}
}

func TestInferAndUpsertSkipsEmptyExtraction(t *testing.T) {
	llm := &fakeCompleter{reply: `{"experienceLevel": "", "weeklyMileage": "", "paceInfo": "", "injuryHistory": ""}`}
	repo := &fakeProfileRepo{}
	svc := NewProfileService(logger.NewNop(), llm, repo)

	if err := svc.InferAndUpsert(context.Background(), uuid.New(), []types.Message{
		{Role: types.RoleUser, Content: "hello"},
	}); err != nil {
		t.Fatalf("InferAndUpsert returned %v", err)
	}
	if repo.upserted != nil {
		t.Fatalf("upserted despite empty extraction: %+v", repo.upserted)
	}
}

func TestInferAndUpsertNoUserMessages(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("should not be called")}
	repo := &fakeProfileRepo{}
	svc := NewProfileService(logger.NewNop(), llm, repo)

	if err := svc.InferAndUpsert(context.Background(), uuid.New(), []types.Message{
		{Role: types.RoleAssistant, Content: "hi there"},
	}); err != nil {
		t.Fatalf("InferAndUpsert returned %v", err)
	}
	if repo.upserted != nil {
		t.Fatal("upserted with no user utterances")
	}
}
