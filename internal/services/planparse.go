package services

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

// PlanParseResult is the outcome of scanning accumulated assistant text for
// an embedded workout plan. Found=false with no error is the normal "the
// assistant is still gathering requirements" case.
type PlanParseResult struct {
	Found    bool
	Plan     *types.WorkoutPlan
	ParseErr string
	// RawBlock is the original captured block, pre-sanitization, so a
	// failed parse can still be shown or salvaged by the caller.
	RawBlock string
}

var fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.*?)```")

// ExtractPlan scans full assistant text for a json-fenced block and parses
// it into a workout plan. The block is sanitized first because the model is
// instructed not to emit comments or trailing commas but occasionally does.
func ExtractPlan(full string) PlanParseResult {
	m := fencedJSONRe.FindStringSubmatch(full)
	if m == nil {
		return PlanParseResult{}
	}
	raw := strings.TrimSpace(m[1])
	if raw == "" {
		return PlanParseResult{}
	}

	clean := SanitizeJSONBlock(raw)

	var payload struct {
		WorkoutPlan *types.WorkoutPlan `json:"workoutPlan"`
	}
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return PlanParseResult{ParseErr: err.Error(), RawBlock: raw}
	}
	if payload.WorkoutPlan == nil {
		return PlanParseResult{ParseErr: "missing workoutPlan object", RawBlock: raw}
	}
	return PlanParseResult{Found: true, Plan: payload.WorkoutPlan}
}

// SanitizeJSONBlock strips the comment and trailing-comma syntax the model
// sometimes emits despite instructions. The scan tracks JSON string
// boundaries so comment markers and commas inside string values are never
// touched, which makes sanitizing already-clean JSON a no-op.
func SanitizeJSONBlock(s string) string {
	s = stripComments(s)
	for {
		next := stripTrailingCommas(s)
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(s)
}

// stripComments removes //, # and /* */ comments found outside string
// values. Line comments are cut up to (not including) the newline.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			i--
		case c == '#':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			i--
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			i += 2
			for i+1 < len(s) && !(s[i] == '*' && s[i+1] == '/') {
				i++
			}
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// stripTrailingCommas drops a comma whose next significant character is a
// closing brace or bracket. Commas inside string values are preserved.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && isJSONSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
