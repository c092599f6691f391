package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

// promptNoResources is the exact context-section text used when retrieval
// produced nothing. The context section is never omitted so the assistant
// behaves consistently with and without grounding.
const promptNoResources = "No training resources are available for this question."

const coachBaseInstructions = `You are Stride, an expert running and strength coach. You help athletes plan training, prepare for races, and build sustainable routines.

When the athlete asks for a training plan and you have enough information (goal, timeline, current fitness), include the plan in your reply as a fenced code block tagged json with this exact shape:

` + "```json" + `
{"workoutPlan": {"planName": "...", "planDescription": "...", "targetRace": "...", "duration": "...", "workouts": [{"title": "...", "date": "YYYY-MM-DD", "type": "run", "runType": "...", "distance": 5}, {"title": "...", "date": "YYYY-MM-DD", "type": "weightlifting", "focusArea": "...", "duration": 45}]}}
` + "```" + `

Rules for the JSON block:
- Emit strict JSON only: no comments, no trailing commas.
- Every workout needs title, date, and type. Run workouts also need runType and distance (miles). Weightlifting workouts also need focusArea and duration (minutes).
- If you are still gathering requirements, reply normally without a JSON block.

When you use the provided training resources, cite them inline with their citation tags.`

// ComposeSystemPrompt builds the grounded system prompt: base coaching
// instructions, a context section rendered from the retrieved documents,
// and the date constraint. currentDate is embedded verbatim.
func ComposeSystemPrompt(docs []types.RetrievedDocument, currentDate string) string {
	var b strings.Builder
	b.WriteString(coachBaseInstructions)
	b.WriteString("\n\n## Training resources\n\n")

	if len(docs) == 0 {
		b.WriteString(promptNoResources)
		b.WriteString("\n")
	} else {
		for _, doc := range docs {
			b.WriteString(renderDocumentBlock(doc))
		}
	}

	b.WriteString("\nToday's date is ")
	b.WriteString(currentDate)
	b.WriteString(". Every workout date in a generated plan must be on or after this date.")
	return b.String()
}

func renderDocumentBlock(doc types.RetrievedDocument) string {
	var b strings.Builder
	b.WriteString("### ")
	b.WriteString(doc.Title)
	b.WriteString("\n")
	b.WriteString(doc.Content)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Type: %s\n", doc.DocumentType)
	fmt.Fprintf(&b, "Citation: %s\n", CitationTag(doc))
	fmt.Fprintf(&b, "Relevance: %d%%\n\n", int(math.Round(doc.Similarity*100)))
	return b.String()
}

// CitationTag renders the citation marker for one document, e.g.
// [Daniels, Pfitzinger, Advanced Marathoning]. Missing authors fall back to
// Unknown.
func CitationTag(doc types.RetrievedDocument) string {
	authors := "Unknown"
	if len(doc.Authors) > 0 {
		authors = strings.Join(doc.Authors, ", ")
	}
	return "[" + authors + ", " + doc.Title + "]"
}
