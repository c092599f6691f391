package types

import "encoding/json"

// Message roles accepted from and returned to callers.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of a coach conversation. Caller-supplied messages are
// never mutated; the pipeline only appends derived ones.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RetrievedDocument is an ephemeral per-query retrieval result. It is never
// persisted by the coach pipeline.
type RetrievedDocument struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	DocumentType string   `json:"documentType"`
	Authors      []string `json:"authors"`
	Similarity   float64  `json:"similarity"`
}

// SourceSummary is the caller-facing view of a retrieved document attached
// to the terminal complete event.
type SourceSummary struct {
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Similarity float64  `json:"similarity"`
}

// WorkoutPlan is the structured plan the assistant may embed in its reply.
type WorkoutPlan struct {
	PlanName        string    `json:"planName"`
	PlanDescription string    `json:"planDescription"`
	TargetRace      string    `json:"targetRace,omitempty"`
	Duration        string    `json:"duration,omitempty"`
	Workouts        []Workout `json:"workouts"`
}

// Workout is tagged by Type; run workouts carry RunType/Distance,
// weightlifting workouts carry FocusArea/Duration.
type Workout struct {
	Title     string  `json:"title"`
	Date      string  `json:"date"`
	Type      string  `json:"type"`
	RunType   string  `json:"runType,omitempty"`
	Distance  float64 `json:"distance,omitempty"`
	FocusArea string  `json:"focusArea,omitempty"`
	Duration  int     `json:"duration,omitempty"`
}

const (
	WorkoutTypeRun           = "run"
	WorkoutTypeWeightlifting = "weightlifting"
)

// Stream event discriminators.
const (
	StreamEventTextDelta = "text_delta"
	StreamEventComplete  = "complete"
	StreamEventError     = "error"
)

// StreamEvent is the normalized unit emitted to the caller over one coach
// response. Exactly one complete or error event terminates a stream; any
// number of text_delta events precede it.
type StreamEvent struct {
	Type string

	// text_delta
	Text string

	// error
	Message string

	// complete
	PlanFound         bool
	Plan              *WorkoutPlan
	ParseError        bool
	ParseErrorMessage string
	RawJSONString     string
	Citations         []string
	Sources           []SourceSummary
}

func NewTextDelta(text string) StreamEvent {
	return StreamEvent{Type: StreamEventTextDelta, Text: text}
}

func NewStreamError(message string) StreamEvent {
	return StreamEvent{Type: StreamEventError, Message: message}
}

// MarshalJSON serializes only the fields that belong to the event variant,
// keeping planFound, citations and sources present on every complete event
// even when empty.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case StreamEventTextDelta:
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{Type: e.Type, Text: e.Text})
	case StreamEventError:
		return json.Marshal(struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{Type: e.Type, Message: e.Message})
	case StreamEventComplete:
		citations := e.Citations
		if citations == nil {
			citations = []string{}
		}
		sources := e.Sources
		if sources == nil {
			sources = []SourceSummary{}
		}
		return json.Marshal(struct {
			Type              string          `json:"type"`
			PlanFound         bool            `json:"planFound"`
			Plan              *WorkoutPlan    `json:"plan,omitempty"`
			ParseError        bool            `json:"parseError,omitempty"`
			ParseErrorMessage string          `json:"parseErrorMessage,omitempty"`
			RawJSONString     string          `json:"rawJsonString,omitempty"`
			Citations         []string        `json:"citations"`
			Sources           []SourceSummary `json:"sources"`
		}{
			Type:              e.Type,
			PlanFound:         e.PlanFound,
			Plan:              e.Plan,
			ParseError:        e.ParseError,
			ParseErrorMessage: e.ParseErrorMessage,
			RawJSONString:     e.RawJSONString,
			Citations:         citations,
			Sources:           sources,
		})
	default:
		type alias struct {
			Type string `json:"type"`
		}
		return json.Marshal(alias{Type: e.Type})
	}
}
