package post

import (
	"math"
	"strings"
	"testing"
)

var testPerspectives = []string{
	"AI should augment healthcare professionals, not replace them",
	"Data privacy must be prioritized",
}

func TestParseWellFormed(t *testing.T) {
	text := `POST:
AI will help clinicians spend more time with patients. 🩺

What do you think?

CONFIDENCE_SCORE: 0.82

REASONING:
Covers augmentation and patient time.`

	r := Parse(text, testPerspectives)
	if r.Error != "" {
		t.Fatalf("unexpected error: %s", r.Error)
	}
	if r.ConfidenceScore != 0.82 {
		t.Errorf("expected 0.82, got %v", r.ConfidenceScore)
	}
	if !strings.HasPrefix(r.Post, "AI will help clinicians") {
		t.Errorf("unexpected post start: %q", r.Post)
	}
	if strings.Contains(r.Post, "CONFIDENCE_SCORE") {
		t.Error("post should stop before the confidence marker")
	}
	if r.Reasoning != "Covers augmentation and patient time." {
		t.Errorf("unexpected reasoning: %q", r.Reasoning)
	}
}

func TestParseMissingPostMarkerReturnsFullInput(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"Just a plain post with no markers at all.",
		"Some text\nCONFIDENCE_SCORE: 0.9\nREASONING: ok",
	}
	for _, in := range inputs {
		r := Parse(in, testPerspectives)
		if r.Post != in {
			t.Errorf("expected full input %q as post, got %q", in, r.Post)
		}
		if r.Error == "" {
			t.Errorf("expected error for input %q", in)
		}
	}
}

func TestParseMissingPostMarkerKeepsModelScore(t *testing.T) {
	in := "Some text\nCONFIDENCE_SCORE: 0.9\nREASONING: ok"
	r := Parse(in, testPerspectives)
	if r.ConfidenceScore != 0.9 {
		t.Errorf("expected model score 0.9, got %v", r.ConfidenceScore)
	}
	if !strings.Contains(r.Error, "missing POST: marker") {
		t.Errorf("unexpected error: %q", r.Error)
	}
	if strings.Contains(r.Error, "CONFIDENCE_SCORE") {
		t.Errorf("score should not be reported missing: %q", r.Error)
	}
}

func TestParseMissingConfidenceUsesHeuristic(t *testing.T) {
	text := "POST:\nHealthcare professionals deserve tools that augment them."
	r1 := Parse(text, testPerspectives)
	r2 := Parse(text, testPerspectives)

	if r1.ConfidenceScore != r2.ConfidenceScore {
		t.Errorf("heuristic not deterministic: %v vs %v", r1.ConfidenceScore, r2.ConfidenceScore)
	}
	if want := Confidence(r1.Post, testPerspectives); r1.ConfidenceScore != want {
		t.Errorf("expected heuristic score %v, got %v", want, r1.ConfidenceScore)
	}
	if r1.Post != "Healthcare professionals deserve tools that augment them." {
		t.Errorf("unexpected post: %q", r1.Post)
	}
	if !strings.Contains(r1.Error, MarkerConfidence) {
		t.Errorf("expected error mentioning %s, got %q", MarkerConfidence, r1.Error)
	}
}

func TestParseConfidenceWithoutNumber(t *testing.T) {
	r := Parse("POST: hello\nCONFIDENCE_SCORE: high\nREASONING: none", testPerspectives)
	if r.Error == "" {
		t.Fatal("expected error when score has no number")
	}
	if r.ConfidenceScore != Confidence("hello", testPerspectives) {
		t.Errorf("expected heuristic fallback, got %v", r.ConfidenceScore)
	}
}

func TestParseIntegerAndOutOfRangeScores(t *testing.T) {
	r := Parse("POST: x\nCONFIDENCE_SCORE: 1", nil)
	if r.ConfidenceScore != 1 {
		t.Errorf("expected 1, got %v", r.ConfidenceScore)
	}
	r = Parse("POST: x\nCONFIDENCE_SCORE: 3.5 (very sure)", nil)
	if r.ConfidenceScore != 3.5 {
		t.Errorf("expected out-of-range 3.5 to pass through, got %v", r.ConfidenceScore)
	}
}

func TestParseStructuredJSON(t *testing.T) {
	text := "```json\n{\"post\": \"Structured post\", \"confidence_score\": 0.9, \"reasoning\": \"fits\"}\n```"
	r := Parse(text, testPerspectives)
	if r.Error != "" {
		t.Fatalf("unexpected error: %s", r.Error)
	}
	if r.Post != "Structured post" || r.ConfidenceScore != 0.9 || r.Reasoning != "fits" {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestParseStructuredJSONMissingScore(t *testing.T) {
	r := Parse(`{"post": "privacy matters"}`, testPerspectives)
	if r.Error == "" {
		t.Fatal("expected error for missing score")
	}
	if r.ConfidenceScore != Confidence("privacy matters", testPerspectives) {
		t.Errorf("expected heuristic score, got %v", r.ConfidenceScore)
	}
}

func TestParseJSONWithoutPostFallsBackToMarkers(t *testing.T) {
	text := `{"unrelated": true}`
	r := Parse(text, testPerspectives)
	if r.Post != text {
		t.Errorf("expected raw text as post, got %q", r.Post)
	}
}

func TestKeywords(t *testing.T) {
	got := Keywords([]string{"AI must help, AI must HELP patients", "Help the patients"})
	want := []string{"must", "help", "patients"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keyword %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestConfidenceNoKeywords(t *testing.T) {
	if got := Confidence("anything", nil); got != DefaultConfidence {
		t.Errorf("expected %v, got %v", DefaultConfidence, got)
	}
	if got := Confidence("anything", []string{"AI is ok"}); got != DefaultConfidence {
		t.Errorf("expected %v for short words only, got %v", DefaultConfidence, got)
	}
}

func TestConfidenceWeighting(t *testing.T) {
	perspectives := []string{"privacy ethics"}

	none := Confidence("nothing relevant", perspectives)
	if math.Abs(none-0.21) > 1e-9 {
		t.Errorf("expected 0.21 with no matches, got %v", none)
	}
	half := Confidence("PRIVACY first", perspectives)
	if math.Abs(half-(0.21+0.35)) > 1e-9 {
		t.Errorf("expected 0.56 with half matched, got %v", half)
	}
	all := Confidence("privacy and ethics", perspectives)
	if math.Abs(all-0.91) > 1e-9 {
		t.Errorf("expected 0.91 with all matched, got %v", all)
	}
}

func TestConfidenceMonotonicInMatches(t *testing.T) {
	perspectives := []string{"augment clinicians privacy ethics patients outcomes"}
	keywords := Keywords(perspectives)

	prev := -1.0
	for n := 0; n <= len(keywords); n++ {
		text := strings.Join(keywords[:n], " ")
		score := Confidence(text, perspectives)
		if score < prev {
			t.Fatalf("score decreased from %v to %v at %d matches", prev, score, n)
		}
		prev = score
	}
}
