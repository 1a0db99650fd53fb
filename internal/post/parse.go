package post

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	postPattern       = regexp.MustCompile(`(?s)POST:(.*?)(?:CONFIDENCE_SCORE:|$)`)
	confidencePattern = regexp.MustCompile(`(?s)CONFIDENCE_SCORE:(.*?)(?:REASONING:|$)`)
	reasoningPattern  = regexp.MustCompile(`(?s)REASONING:(.*)$`)
	numberPattern     = regexp.MustCompile(`\d+\.\d+|\d+`)
)

// Parse extracts the post body and confidence score from raw model output.
// It never fails: missing markers degrade to the whole response as the post
// and a keyword heuristic as the score, with Error describing what was
// missing.
func Parse(text string, perspectives []string) Result {
	if r, ok := parseStructured(text, perspectives); ok {
		return r
	}

	var problems []string
	r := Result{}

	if m := postPattern.FindStringSubmatch(text); m != nil {
		r.Post = strings.TrimSpace(m[1])
	} else {
		r.Post = text
		problems = append(problems, "missing "+MarkerPost+" marker")
	}

	score, err := extractScore(text)
	if err != nil {
		problems = append(problems, err.Error())
		score = Confidence(r.Post, perspectives)
	}
	r.ConfidenceScore = score

	if m := reasoningPattern.FindStringSubmatch(text); m != nil {
		r.Reasoning = strings.TrimSpace(m[1])
	}

	if len(problems) > 0 {
		r.Error = "could not parse model response: " + strings.Join(problems, "; ")
	}
	return r
}

func extractScore(text string) (float64, error) {
	m := confidencePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("missing %s marker", MarkerConfidence)
	}
	num := numberPattern.FindString(m[1])
	if num == "" {
		return 0, fmt.Errorf("no number after %s", MarkerConfidence)
	}
	score, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid confidence %q: %w", num, err)
	}
	return score, nil
}

// parseStructured handles responses produced in structured-output mode:
// a JSON object with post, confidence_score and reasoning keys.
func parseStructured(text string, perspectives []string) (Result, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "```") {
		return Result{}, false
	}
	parsed := ParseJSONResponse(trimmed)
	if parsed == nil {
		return Result{}, false
	}
	body, ok := parsed["post"].(string)
	if !ok {
		return Result{}, false
	}

	r := Result{Post: strings.TrimSpace(body)}
	if reasoning, ok := parsed["reasoning"].(string); ok {
		r.Reasoning = strings.TrimSpace(reasoning)
	}
	switch v := parsed["confidence_score"].(type) {
	case float64:
		r.ConfidenceScore = v
	case string:
		if score, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			r.ConfidenceScore = score
			break
		}
		r.ConfidenceScore = Confidence(r.Post, perspectives)
		r.Error = "could not parse model response: invalid confidence_score"
	default:
		r.ConfidenceScore = Confidence(r.Post, perspectives)
		r.Error = "could not parse model response: missing confidence_score"
	}
	return r, true
}
