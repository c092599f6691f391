package services

import (
	"strings"
	"testing"

	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

func TestComposeSystemPromptNoDocuments(t *testing.T) {
	prompt := ComposeSystemPrompt(nil, "2026-09-01")

	if !strings.Contains(prompt, promptNoResources) {
		t.Fatalf("prompt missing fallback sentence %q", promptNoResources)
	}
	if !strings.Contains(prompt, "## Training resources") {
		t.Fatal("context section omitted when no documents retrieved")
	}
	if !strings.Contains(prompt, "Today's date is 2026-09-01") {
		t.Fatal("current date not embedded verbatim")
	}
	if !strings.Contains(prompt, "on or after this date") {
		t.Fatal("date constraint instruction missing")
	}
}

func TestComposeSystemPromptWithDocuments(t *testing.T) {
	docs := []types.RetrievedDocument{
		{
			Title:        "Advanced Marathoning",
			Content:      "Build mileage gradually.",
			DocumentType: "book",
			Authors:      []string{"Pfitzinger", "Douglas"},
			Similarity:   0.874,
		},
		{
			Title:        "Couch to 5K",
			Content:      "Alternate walking and running.",
			DocumentType: "article",
			Similarity:   0.65,
		},
	}

	prompt := ComposeSystemPrompt(docs, "2026-09-01")

	if strings.Contains(prompt, promptNoResources) {
		t.Fatal("fallback sentence present despite retrieved documents")
	}
	if !strings.Contains(prompt, "[Pfitzinger, Douglas, Advanced Marathoning]") {
		t.Fatal("citation tag not rendered from authors and title")
	}
	if !strings.Contains(prompt, "[Unknown, Couch to 5K]") {
		t.Fatal("missing-author citation did not fall back to Unknown")
	}
	if !strings.Contains(prompt, "Relevance: 87%") {
		t.Fatal("similarity not rounded to a whole percentage")
	}
	if !strings.Contains(prompt, "Relevance: 65%") {
		t.Fatal("threshold-boundary similarity not rendered")
	}
	if !strings.Contains(prompt, "Build mileage gradually.") {
		t.Fatal("document content not included")
	}
}

func TestCitationTag(t *testing.T) {
	doc := types.RetrievedDocument{Title: "Daniels' Running Formula", Authors: []string{"Jack Daniels"}}
	if got := CitationTag(doc); got != "[Jack Daniels, Daniels' Running Formula]" {
		t.Fatalf("CitationTag() = %q", got)
	}
	doc.Authors = nil
	if got := CitationTag(doc); got != "[Unknown, Daniels' Running Formula]" {
		t.Fatalf("CitationTag() without authors = %q", got)
	}
}
