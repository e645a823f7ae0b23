package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driving"
)

// Ensure EvalService implements the interface.
var _ driving.EvalService = (*EvalService)(nil)

// answerPreviewLength bounds the answer kept per eval result.
const answerPreviewLength = 240

// EvalService scores retrieval against golden questions. It measures the
// retriever, so contexts are not gated.
type EvalService struct {
	retriever *Retriever
	answers   *AnswerService
}

// NewEvalService creates an evaluation service.
func NewEvalService(retriever *Retriever, answers *AnswerService) *EvalService {
	return &EvalService{retriever: retriever, answers: answers}
}

// Run evaluates every case. A case passes when any of its must_cite sources
// is among the retrieved active-version sources, or when it names none.
func (s *EvalService) Run(ctx context.Context, cases []domain.EvalCase) (*domain.EvalReport, error) {
	report := &domain.EvalReport{Results: make([]domain.EvalResult, 0, len(cases))}

	for _, c := range cases {
		contexts, err := s.retriever.Retrieve(ctx, c.Question)
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", c.ID, err)
		}

		sources := make(map[string]struct{})
		for _, rc := range contexts {
			sources[rc.SourcePath] = struct{}{}
		}

		pass := len(c.MustCite) == 0
		for _, m := range c.MustCite {
			if _, ok := sources[m]; ok {
				pass = true
				break
			}
		}
		if pass {
			report.Passed++
		}

		answer, _ := s.answers.AnswerFrom(ctx, c.Question, contexts)
		report.Results = append(report.Results, domain.EvalResult{
			ID:               c.ID,
			Question:         c.Question,
			MustCite:         sortedUnique(c.MustCite),
			RetrievedSources: sortedKeys(sources),
			Pass:             pass,
			AnswerPreview:    prefixRaw(answer, answerPreviewLength),
		})
	}

	report.Total = len(report.Results)
	report.PassRate = math.Round(float64(report.Passed)/float64(max(1, report.Total))*1000) / 1000
	return report, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedUnique(in []string) []string {
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		set[s] = struct{}{}
	}
	return sortedKeys(set)
}

// prefixRaw truncates to n runes with an ellipsis, without trimming.
func prefixRaw(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "…"
}
