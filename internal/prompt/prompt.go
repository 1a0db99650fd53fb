// Package prompt builds the instruction sent to the generation provider.
package prompt

import (
	"fmt"
	"strings"
)

const postPrompt = `You are an AI assistant helping a %[1]s create %[2]s posts about %[3]s topics.

# ARTICLE CONTENT
%[4]s

# %[5]s'S PERSPECTIVE ON %[6]s
%[7]s

# TASK
Generate a %[2]s post (approximately %[8]d words) that discusses the article content from the %[1]s's perspective.

The post should:
1. Reflect the %[1]s's "AI as enabler" philosophy
2. Maintain a professional, thoughtful tone
3. Include a brief commentary on the implications for %[3]s
4. End with a thought-provoking question or call to action
5. Be written in first person as if the %[1]s is writing it
6. Use 2-3 relevant emojis strategically placed throughout the post
7. Format the content into 2-3 paragraphs for better readability

%[9]s`

const markerFormat = `# OUTPUT FORMAT
Your response must strictly follow this exact format:

POST:
[Your %[1]s post content with emojis and paragraph breaks]

CONFIDENCE_SCORE: 0.85

REASONING:
[Your explanation for the confidence score]

Important: For the CONFIDENCE_SCORE, you must provide a single decimal number between 0.7 and 0.95. Do not include any text, just the number. For example: "CONFIDENCE_SCORE: 0.82" or "CONFIDENCE_SCORE: 0.75"`

const jsonFormat = `# OUTPUT FORMAT
Respond with ONLY this JSON:
{
    "post": "Your %[1]s post content with emojis and paragraph breaks",
    "confidence_score": 0.85,
    "reasoning": "Your explanation for the confidence score"
}

confidence_score must be a single decimal number between 0.7 and 0.95.`

// Options controls who the post is written for and how the model must
// format its answer.
type Options struct {
	Persona    string
	Topic      string
	Platform   string
	Structured bool
}

// DefaultOptions returns the physician / healthcare AI / LinkedIn setup.
func DefaultOptions() Options {
	return Options{
		Persona:  "physician",
		Topic:    "AI in healthcare",
		Platform: "LinkedIn",
	}
}

// Build renders the default prompt for article, word count and perspectives.
func Build(article string, wordCount int, perspectives []string) string {
	return DefaultOptions().Build(article, wordCount, perspectives)
}

// Build renders the prompt. Every perspective becomes a "- " bullet; an
// empty list leaves the perspective block empty.
func (o Options) Build(article string, wordCount int, perspectives []string) string {
	o = o.withDefaults()

	format := fmt.Sprintf(markerFormat, o.Platform)
	if o.Structured {
		format = fmt.Sprintf(jsonFormat, o.Platform)
	}

	return fmt.Sprintf(postPrompt,
		o.Persona,
		o.Platform,
		o.Topic,
		article,
		strings.ToUpper(o.Persona),
		strings.ToUpper(o.Topic),
		Bullets(perspectives),
		wordCount,
		format,
	)
}

// Bullets renders perspectives as a markdown bullet list.
func Bullets(perspectives []string) string {
	lines := make([]string, len(perspectives))
	for i, p := range perspectives {
		lines[i] = "- " + p
	}
	return strings.Join(lines, "\n")
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Persona == "" {
		o.Persona = d.Persona
	}
	if o.Topic == "" {
		o.Topic = d.Topic
	}
	if o.Platform == "" {
		o.Platform = d.Platform
	}
	return o
}
