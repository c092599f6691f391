package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

type fakeLLM struct {
	deltas  []string
	text    string
	openErr error
}

func (f *fakeLLM) StreamMessages(ctx context.Context, system string, messages []types.Message, onDelta func(string)) (string, error) {
	if f.openErr != nil {
		return "", f.openErr
	}
	var full string
	for _, d := range f.deltas {
		if ctx.Err() != nil {
			return full, ctx.Err()
		}
		full += d
		if onDelta != nil {
			onDelta(d)
		}
	}
	if f.text != "" {
		return f.text, nil
	}
	return full, nil
}

func (f *fakeLLM) Complete(ctx context.Context, system string, messages []types.Message) (string, error) {
	return "", errors.New("not implemented")
}

type fakeRetrieval struct {
	docs []types.RetrievedDocument
}

func (f *fakeRetrieval) Retrieve(ctx context.Context, query string) []types.RetrievedDocument {
	return f.docs
}

type fakeConversationRepo struct {
	created chan *types.CoachConversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{created: make(chan *types.CoachConversation, 1)}
}

func (f *fakeConversationRepo) Create(ctx context.Context, tx *gorm.DB, record *types.CoachConversation) (*types.CoachConversation, error) {
	f.created <- record
	return record, nil
}

func (f *fakeConversationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.CoachConversation, error) {
	return nil, nil
}

type fakeProfileService struct {
	called chan uuid.UUID
}

func newFakeProfileService() *fakeProfileService {
	return &fakeProfileService{called: make(chan uuid.UUID, 1)}
}

func (f *fakeProfileService) InferAndUpsert(ctx context.Context, userID uuid.UUID, messages []types.Message) error {
	f.called <- userID
	return nil
}

func collectEvents(t *testing.T, svc CoachService, messages []types.Message) []types.StreamEvent {
	t.Helper()
	var events []types.StreamEvent
	err := svc.Stream(context.Background(), uuid.New(), messages, func(ev types.StreamEvent) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream returned %v", err)
	}
	return events
}

func TestStreamForwardsDeltasInOrder(t *testing.T) {
	llm := &fakeLLM{deltas: []string{"Hello", " there"}}
	repo := newFakeConversationRepo()
	svc := NewCoachService(logger.NewNop(), &fakeRetrieval{}, llm, repo, nil)

	events := collectEvents(t, svc, []types.Message{{Role: types.RoleUser, Content: "hi"}})

	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Type != types.StreamEventTextDelta || events[0].Text != "Hello" {
		t.Fatalf("first event = %+v", events[0])
	}
	if events[1].Type != types.StreamEventTextDelta || events[1].Text != " there" {
		t.Fatalf("second event = %+v", events[1])
	}
	last := events[2]
	if last.Type != types.StreamEventComplete {
		t.Fatalf("terminal event type = %s", last.Type)
	}
	if last.PlanFound {
		t.Fatal("planFound = true without a fenced block")
	}

	select {
	case record := <-repo.created:
		if record.PlanGenerated {
			t.Fatal("record marked planGenerated without a plan")
		}
		if record.WorkoutsCreated != 0 {
			t.Fatalf("workoutsCreated = %d", record.WorkoutsCreated)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("conversation never persisted")
	}
}

func TestStreamNoDeltasStillTerminates(t *testing.T) {
	llm := &fakeLLM{}
	svc := NewCoachService(logger.NewNop(), &fakeRetrieval{}, llm, newFakeConversationRepo(), nil)

	events := collectEvents(t, svc, []types.Message{{Role: types.RoleUser, Content: "hi"}})

	if len(events) != 1 {
		t.Fatalf("events = %d, want exactly 1", len(events))
	}
	if events[0].Type != types.StreamEventComplete {
		t.Fatalf("terminal event type = %s", events[0].Type)
	}
}

func TestStreamUpstreamFailureEmitsSingleError(t *testing.T) {
	llm := &fakeLLM{openErr: errors.New("upstream status 500")}
	svc := NewCoachService(logger.NewNop(), &fakeRetrieval{}, llm, newFakeConversationRepo(), nil)

	events := collectEvents(t, svc, []types.Message{{Role: types.RoleUser, Content: "hi"}})

	if len(events) != 1 {
		t.Fatalf("events = %d, want exactly 1", len(events))
	}
	if events[0].Type != types.StreamEventError {
		t.Fatalf("event type = %s, want error", events[0].Type)
	}
	for _, ev := range events {
		if ev.Type == types.StreamEventComplete {
			t.Fatal("complete event emitted after upstream failure")
		}
	}
}

func TestStreamExtractsPlanAndCitations(t *testing.T) {
	planText := "Here you go.\n```json\n" +
		`{"workoutPlan": {"planName": "Base Phase", "planDescription": "Four easy weeks.", "workouts": [` +
		`{"title": "Easy Run", "date": "2099-01-02", "type": "run", "runType": "Easy", "distance": 3},` +
		`{"title": "Core", "date": "2099-01-03", "type": "weightlifting", "focusArea": "Core", "duration": 30}]}}` +
		"\n```"
	llm := &fakeLLM{deltas: []string{planText}}
	docs := []types.RetrievedDocument{{Title: "Base Training", Authors: []string{"Lydiard"}, Similarity: 0.8}}
	repo := newFakeConversationRepo()
	svc := NewCoachService(logger.NewNop(), &fakeRetrieval{docs: docs}, llm, repo, nil)

	events := collectEvents(t, svc, []types.Message{{Role: types.RoleUser, Content: "plan please"}})

	last := events[len(events)-1]
	if last.Type != types.StreamEventComplete {
		t.Fatalf("terminal event type = %s", last.Type)
	}
	if !last.PlanFound || last.Plan == nil {
		t.Fatalf("plan not extracted: %+v", last)
	}
	if len(last.Plan.Workouts) != 2 {
		t.Fatalf("workouts = %d, want 2", len(last.Plan.Workouts))
	}
	if len(last.Citations) != 1 || last.Citations[0] != "[Lydiard, Base Training]" {
		t.Fatalf("citations = %v", last.Citations)
	}
	if len(last.Sources) != 1 || last.Sources[0].Title != "Base Training" {
		t.Fatalf("sources = %v", last.Sources)
	}

	select {
	case record := <-repo.created:
		if !record.PlanGenerated || record.WorkoutsCreated != 2 {
			t.Fatalf("persisted record = %+v", record)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("conversation never persisted")
	}
}

func TestStreamParseErrorCarriesRawBlock(t *testing.T) {
	raw := `{"workoutPlan": {"workouts": [}`
	llm := &fakeLLM{deltas: []string{"```json\n" + raw + "\n```"}}
	svc := NewCoachService(logger.NewNop(), &fakeRetrieval{}, llm, newFakeConversationRepo(), nil)

	events := collectEvents(t, svc, []types.Message{{Role: types.RoleUser, Content: "plan please"}})

	last := events[len(events)-1]
	if last.Type != types.StreamEventComplete {
		t.Fatalf("terminal event type = %s", last.Type)
	}
	if last.PlanFound {
		t.Fatal("planFound = true for unparseable block")
	}
	if !last.ParseError || last.ParseErrorMessage == "" {
		t.Fatalf("parse error not reported: %+v", last)
	}
	if last.RawJSONString != raw {
		t.Fatalf("rawJsonString = %q, want original block", last.RawJSONString)
	}
}

func TestStreamTriggersProfileInference(t *testing.T) {
	messages := []types.Message{
		{Role: types.RoleUser, Content: "I run 20 miles a week"},
		{Role: types.RoleAssistant, Content: "Great base!"},
		{Role: types.RoleUser, Content: "I want a marathon plan"},
	}
	llm := &fakeLLM{deltas: []string{"Tell me about your goal race."}}
	profiles := newFakeProfileService()
	svc := NewCoachService(logger.NewNop(), &fakeRetrieval{}, llm, newFakeConversationRepo(), profiles)

	collectEvents(t, svc, messages)

	// 3 caller messages + 1 appended assistant reply crosses the threshold.
	select {
	case <-profiles.called:
	case <-time.After(2 * time.Second):
		t.Fatal("profile inference never triggered")
	}
}

func TestStreamShortConversationSkipsProfile(t *testing.T) {
	llm := &fakeLLM{deltas: []string{"What distance?"}}
	profiles := newFakeProfileService()
	repo := newFakeConversationRepo()
	svc := NewCoachService(logger.NewNop(), &fakeRetrieval{}, llm, repo, profiles)

	collectEvents(t, svc, []types.Message{{Role: types.RoleUser, Content: "hi"}})

	// Wait for the conversation write so the goroutines have run.
	select {
	case <-repo.created:
	case <-time.After(2 * time.Second):
		t.Fatal("conversation never persisted")
	}
	select {
	case <-profiles.called:
		t.Fatal("profile inference triggered for a short conversation")
	case <-time.After(100 * time.Millisecond):
	}
}
