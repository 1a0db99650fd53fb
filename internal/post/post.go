// Package post holds the generation request/result types together with the
// parser that turns raw model output into a post and a confidence score.
package post

const (
	// DefaultWordCount is the target post length when the caller gives none.
	DefaultWordCount = 225

	// DefaultConfidence is the baseline score blended into the heuristic
	// and used when no keywords can be derived.
	DefaultConfidence = 0.7
)

// Output markers shared by the prompt template and the parser.
const (
	MarkerPost       = "POST:"
	MarkerConfidence = "CONFIDENCE_SCORE:"
	MarkerReasoning  = "REASONING:"
)

// Request is one post generation request.
type Request struct {
	Content      string
	IsURL        bool
	WordCount    int
	Perspectives []string
}

// Result is the outcome of a single generation. Error is set when content
// extraction failed or when the model output had to be parsed on the
// fallback path.
type Result struct {
	Post            string  `json:"post"`
	ConfidenceScore float64 `json:"confidence_score"`
	Reasoning       string  `json:"-"`
	Error           string  `json:"error,omitempty"`
}

// Degraded reports whether the result carries an error message.
func (r *Result) Degraded() bool {
	return r.Error != ""
}
