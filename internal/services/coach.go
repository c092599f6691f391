package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/JacksonLee45/stride-sync-sub000/internal/clients/anthropic"
	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/repos"
	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

// persistTimeout bounds the detached post-stream writes. The response is
// already closed by the time these run; they must never block forever.
const persistTimeout = 30 * time.Second

// CoachService owns one coach conversation turn: retrieve context, compose
// the grounded prompt, consume the upstream stream, extract the plan, and
// persist the exchange without blocking the caller's stream.
type CoachService interface {
	// Stream runs one conversation turn, forwarding normalized events to
	// emit in order. Exactly one complete or error event is emitted last.
	// An error return means emit itself failed (caller gone); upstream
	// failures are delivered as an error event and return nil.
	Stream(ctx context.Context, userID uuid.UUID, messages []types.Message, emit func(types.StreamEvent) error) error

	// ListConversations reads the caller's recent exchanges from the
	// append-only log.
	ListConversations(ctx context.Context, userID uuid.UUID, limit int) ([]*types.CoachConversation, error)
}

type coachService struct {
	log           *logger.Logger
	retrieval     RetrievalService
	llm           anthropic.Client
	conversations repos.CoachConversationRepo
	profiles      ProfileService
	now           func() time.Time
}

func NewCoachService(
	baseLog *logger.Logger,
	retrieval RetrievalService,
	llm anthropic.Client,
	conversationRepo repos.CoachConversationRepo,
	profiles ProfileService,
) CoachService {
	return &coachService{
		log:           baseLog.With("service", "CoachService"),
		retrieval:     retrieval,
		llm:           llm,
		conversations: conversationRepo,
		profiles:      profiles,
		now:           time.Now,
	}
}

func (s *coachService) Stream(ctx context.Context, userID uuid.UUID, messages []types.Message, emit func(types.StreamEvent) error) error {
	if len(messages) == 0 {
		return emit(types.NewStreamError("no messages provided"))
	}

	query := lastUserContent(messages)
	docs := s.retrieval.Retrieve(ctx, query)

	generatedAt := s.now().UTC()
	currentDate := generatedAt.Format("2006-01-02")
	system := ComposeSystemPrompt(docs, currentDate)

	// If the caller disconnects, emit starts failing; cancel the upstream
	// read instead of draining a stream nobody is watching.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var emitErr error
	full, err := s.llm.StreamMessages(streamCtx, system, messages, func(delta string) {
		if emitErr != nil {
			return
		}
		if e := emit(types.NewTextDelta(delta)); e != nil {
			emitErr = e
			cancel()
		}
	})
	if emitErr != nil {
		return emitErr
	}
	if err != nil {
		s.log.Error("Upstream stream failed", "user_id", userID, "error", err)
		return emit(types.NewStreamError(err.Error()))
	}

	result := ExtractPlan(full)
	if result.Found {
		s.warnOnPastDates(userID, result.Plan, generatedAt)
	}

	complete := types.StreamEvent{
		Type:      types.StreamEventComplete,
		PlanFound: result.Found,
		Plan:      result.Plan,
		Citations: citationsFor(docs),
		Sources:   sourcesFor(docs),
	}
	if result.ParseErr != "" {
		complete.ParseError = true
		complete.ParseErrorMessage = result.ParseErr
		complete.RawJSONString = result.RawBlock
	}
	if err := emit(complete); err != nil {
		return err
	}

	s.persistAsync(userID, messages, full, result)
	return nil
}

func (s *coachService) ListConversations(ctx context.Context, userID uuid.UUID, limit int) ([]*types.CoachConversation, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("not authenticated")
	}
	return s.conversations.GetByUserID(ctx, nil, userID, limit)
}

// persistAsync runs the two post-stream side effects detached from the
// response lifecycle. Both are best-effort: failures are logged, never
// surfaced, never retried.
func (s *coachService) persistAsync(userID uuid.UUID, messages []types.Message, assistantText string, result PlanParseResult) {
	history := append(append([]types.Message{}, messages...), types.Message{
		Role:    types.RoleAssistant,
		Content: assistantText,
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		raw, err := json.Marshal(history)
		if err != nil {
			s.log.Error("Failed to encode conversation for persistence", "user_id", userID, "error", err)
			return
		}

		workouts := 0
		if result.Found && result.Plan != nil {
			workouts = len(result.Plan.Workouts)
		}

		if _, err := s.conversations.Create(ctx, nil, &types.CoachConversation{
			UserID:          userID,
			Messages:        datatypes.JSON(raw),
			PlanGenerated:   result.Found,
			WorkoutsCreated: workouts,
		}); err != nil {
			s.log.Error("Failed to persist coach conversation", "user_id", userID, "error", err)
		}
	}()

	// Profile inference only once the conversation has enough signal.
	if s.profiles != nil && len(history) > 3 {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := s.profiles.InferAndUpsert(ctx, userID, history); err != nil {
				s.log.Error("Profile inference failed; conversation continues without it", "user_id", userID, "error", err)
			}
		}()
	}
}

func (s *coachService) warnOnPastDates(userID uuid.UUID, plan *types.WorkoutPlan, generatedAt time.Time) {
	if plan == nil {
		return
	}
	day := generatedAt.Format("2006-01-02")
	for _, w := range plan.Workouts {
		if w.Date != "" && w.Date < day {
			s.log.Warn("Generated plan contains a workout dated before generation",
				"user_id", userID,
				"workout_title", w.Title,
				"workout_date", w.Date,
				"generated_on", day,
			)
		}
	}
}

func lastUserContent(messages []types.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleUser {
			return messages[i].Content
		}
	}
	return messages[len(messages)-1].Content
}

func citationsFor(docs []types.RetrievedDocument) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, CitationTag(d))
	}
	return out
}

func sourcesFor(docs []types.RetrievedDocument) []types.SourceSummary {
	out := make([]types.SourceSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, types.SourceSummary{
			Title:      d.Title,
			Authors:    d.Authors,
			Similarity: d.Similarity,
		})
	}
	return out
}
