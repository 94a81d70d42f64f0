package textutil

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Statistics summarizes the size and density of a document's text.
type Statistics struct {
	CharacterCount          int     `json:"character_count"`            // runes, whitespace included
	WordCount               int     `json:"word_count"`                 // whitespace-separated tokens
	SentenceCount           int     `json:"sentence_count"`             // non-empty [.!?]+ segments
	ParagraphCount          int     `json:"paragraph_count"`            // non-blank blank-line segments
	AverageWordsPerSentence float64 `json:"average_words_per_sentence"` // 2 decimals
	ReadingTimeMinutes      float64 `json:"reading_time_minutes"`       // 2 decimals
}

var sentenceSplitRE = regexp.MustCompile(`[.!?]+`)

// readingWordsPerMinute is the assumed adult reading speed.
const readingWordsPerMinute = 200.0

// Stats computes document statistics. Empty input returns nil rather than a
// zeroed record so callers (and JSON output) can tell "nothing to report"
// apart from a genuinely empty document snapshot.
func Stats(text string) *Statistics {
	if text == "" {
		return nil
	}

	wordCount := len(strings.Fields(text))

	sentenceCount := 0
	for _, s := range sentenceSplitRE.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentenceCount++
		}
	}

	paragraphCount := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphCount++
		}
	}

	denom := sentenceCount
	if denom < 1 {
		denom = 1
	}

	return &Statistics{
		CharacterCount:          utf8.RuneCountInString(text),
		WordCount:               wordCount,
		SentenceCount:           sentenceCount,
		ParagraphCount:          paragraphCount,
		AverageWordsPerSentence: round2(float64(wordCount) / float64(denom)),
		ReadingTimeMinutes:      round2(float64(wordCount) / readingWordsPerMinute),
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
