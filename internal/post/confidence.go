package post

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

const minKeywordLen = 4

// Keywords returns the de-duplicated lowercase words of at least four
// characters found in the perspective statements, in first-seen order.
func Keywords(perspectives []string) []string {
	seen := make(map[string]struct{})
	var keywords []string
	for _, statement := range perspectives {
		for _, word := range wordPattern.FindAllString(strings.ToLower(statement), -1) {
			if utf8.RuneCountInString(word) < minKeywordLen {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// Confidence estimates how well text reflects the perspectives by keyword
// overlap: 0.3*DefaultConfidence + 0.7*(matched/total). With no keywords
// the score is DefaultConfidence.
func Confidence(text string, perspectives []string) float64 {
	keywords := Keywords(perspectives)
	if len(keywords) == 0 {
		return DefaultConfidence
	}

	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	return blend(matches, len(keywords))
}

func blend(matches, total int) float64 {
	ratio := float64(matches) / float64(total)
	if ratio > 1.0 {
		ratio = 1.0
	}
	return 0.3*DefaultConfidence + 0.7*ratio
}
