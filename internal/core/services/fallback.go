package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

const (
	// localAnswerSentences is how many sentences the heuristic keeps.
	localAnswerSentences = 3

	// localAnswerPrefix bounds the answer when no sentence can be scored.
	localAnswerPrefix = 350
)

var questionTerm = regexp.MustCompile(`[a-zA-Z]{3,}`)

var stopWords = map[string]struct{}{
	"what": {}, "when": {}, "where": {}, "which": {}, "that": {}, "this": {},
	"with": {}, "from": {}, "your": {}, "have": {}, "will": {}, "should": {},
	"does": {}, "do": {}, "is": {}, "are": {}, "the": {}, "and": {},
	"for": {}, "into": {}, "about": {},
}

// LocalAnswer extracts an answer from the best context without a model.
// Sentences are ranked by how many question terms they contain, ties going
// to the shorter sentence, and the top three are joined in rank order.
// It is deterministic for identical inputs.
func LocalAnswer(question string, contexts []domain.RetrievedContext) string {
	if len(contexts) == 0 {
		return domain.NoInformationAnswer
	}
	text := strings.TrimSpace(contexts[0].Text)
	if text == "" {
		return domain.NoInformationAnswer
	}

	terms := questionTerms(question)

	type scored struct {
		score    int
		length   int
		sentence string
	}
	var ranked []scored
	for _, s := range splitSentences(strings.ReplaceAll(text, "\n", " ")) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		lower := strings.ToLower(s)
		hits := 0
		for _, t := range terms {
			if strings.Contains(lower, t) {
				hits++
			}
		}
		ranked = append(ranked, scored{score: hits, length: len([]rune(s)), sentence: s})
	}
	if len(ranked) == 0 {
		return prefix(text, localAnswerPrefix)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].length < ranked[j].length
	})

	picked := make([]string, 0, localAnswerSentences)
	for _, r := range ranked[:min(len(ranked), localAnswerSentences)] {
		picked = append(picked, r.sentence)
	}
	answer := strings.TrimSpace(strings.Join(picked, " "))
	if answer == "" {
		return prefix(text, localAnswerPrefix)
	}
	return answer
}

// questionTerms returns the lowercase words of at least three ASCII letters
// that are not stop words, in order and with repeats.
func questionTerms(question string) []string {
	var terms []string
	for _, t := range questionTerm.FindAllString(strings.ToLower(question), -1) {
		if _, stop := stopWords[t]; !stop {
			terms = append(terms, t)
		}
	}
	return terms
}

// splitSentences cuts text after '.', '!' or '?' when whitespace follows,
// dropping that whitespace.
func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
		default:
			continue
		}
		if !unicode.IsSpace(runes[i+1]) {
			continue
		}
		out = append(out, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	return append(out, string(runes[start:]))
}

// prefix returns the first n runes of text, trimmed, with an ellipsis when
// text was longer.
func prefix(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
