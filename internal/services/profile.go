package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JacksonLee45/stride-sync-sub000/internal/clients/anthropic"
	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/repos"
	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

const profileExtractionPrompt = `Extract the athlete's training profile from their messages. Reply with strict JSON only (no code fences, no comments) in this shape:
{"experienceLevel": "", "weeklyMileage": "", "paceInfo": "", "injuryHistory": ""}
Use an empty string for any field the athlete has not mentioned.`

// ProfileService derives a compact training profile from the user's side of
// a conversation via a separate non-streaming completion, then upserts it
// keyed by user identity.
type ProfileService interface {
	InferAndUpsert(ctx context.Context, userID uuid.UUID, messages []types.Message) error
}

type profileService struct {
	log      *logger.Logger
	llm      anthropic.Client
	profiles repos.AthleteProfileRepo
}

func NewProfileService(baseLog *logger.Logger, llm anthropic.Client, profileRepo repos.AthleteProfileRepo) ProfileService {
	return &profileService{
		log:      baseLog.With("service", "ProfileService"),
		llm:      llm,
		profiles: profileRepo,
	}
}

func (s *profileService) InferAndUpsert(ctx context.Context, userID uuid.UUID, messages []types.Message) error {
	if userID == uuid.Nil {
		return fmt.Errorf("user id required")
	}

	utterances := userUtterances(messages)
	if strings.TrimSpace(utterances) == "" {
		return nil
	}

	reply, err := s.llm.Complete(ctx, profileExtractionPrompt, []types.Message{
		{Role: types.RoleUser, Content: utterances},
	})
	if err != nil {
		return fmt.Errorf("profile extraction call: %w", err)
	}

	var fields struct {
		ExperienceLevel string `json:"experienceLevel"`
		WeeklyMileage   string `json:"weeklyMileage"`
		PaceInfo        string `json:"paceInfo"`
		InjuryHistory   string `json:"injuryHistory"`
	}
	// The model is told not to fence its reply but gets the same defensive
	// sanitization as plan blocks.
	if err := json.Unmarshal([]byte(SanitizeJSONBlock(stripFences(reply))), &fields); err != nil {
		return fmt.Errorf("profile extraction parse: %w", err)
	}

	if fields.ExperienceLevel == "" && fields.WeeklyMileage == "" && fields.PaceInfo == "" && fields.InjuryHistory == "" {
		s.log.Debug("Profile extraction found nothing to store", "user_id", userID)
		return nil
	}

	_, err = s.profiles.Upsert(ctx, nil, &types.AthleteProfile{
		UserID:          userID,
		ExperienceLevel: fields.ExperienceLevel,
		WeeklyMileage:   fields.WeeklyMileage,
		PaceInfo:        fields.PaceInfo,
		InjuryHistory:   fields.InjuryHistory,
	})
	return err
}

func userUtterances(messages []types.Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m.Role != types.RoleUser {
			continue
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// stripFences removes a ``` or ```json wrapper when the model fences its
// reply anyway.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
