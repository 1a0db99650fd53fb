package prompt

import (
	"strings"
	"testing"

	"github.com/TobiSchelling/perspost/internal/post"
)

func TestBuildEmbedsEverything(t *testing.T) {
	perspectives := []string{"Patients first", "Privacy matters"}
	p := Build("Article about AI scribes.", 180, perspectives)

	for _, want := range []string{
		"Article about AI scribes.",
		"- Patients first\n- Privacy matters",
		"approximately 180 words",
		"PHYSICIAN'S PERSPECTIVE ON AI IN HEALTHCARE",
		post.MarkerPost,
		post.MarkerConfidence,
		post.MarkerReasoning,
		"between 0.7 and 0.95",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestBuildEmptyPerspectives(t *testing.T) {
	p := Build("Some article", 225, nil)
	if !strings.Contains(p, "approximately 225 words") {
		t.Error("expected word count in prompt")
	}
	if !strings.Contains(p, "AI IN HEALTHCARE\n\n\n# TASK") {
		t.Error("expected empty perspective block")
	}
	if strings.Contains(p, "\n- ") {
		t.Error("expected no bullets")
	}
}

func TestBuildCustomPersona(t *testing.T) {
	o := Options{Persona: "school principal", Topic: "AI in education", Platform: "Mastodon"}
	p := o.Build("text", 100, []string{"Students learn by doing"})

	for _, want := range []string{"helping a school principal create Mastodon posts", "SCHOOL PRINCIPAL'S PERSPECTIVE ON AI IN EDUCATION", "- Students learn by doing"} {
		if !strings.Contains(p, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestBuildStructured(t *testing.T) {
	o := DefaultOptions()
	o.Structured = true
	p := o.Build("text", 100, nil)

	if !strings.Contains(p, `"confidence_score"`) {
		t.Error("expected JSON output format")
	}
	if strings.Contains(p, "CONFIDENCE_SCORE:") {
		t.Error("expected no marker format in structured mode")
	}
}

func TestBullets(t *testing.T) {
	if got := Bullets(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := Bullets([]string{"a", "b"}); got != "- a\n- b" {
		t.Errorf("unexpected bullets %q", got)
	}
}
