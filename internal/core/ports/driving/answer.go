package driving

import (
	"context"

	"github.com/custodia-labs/ragvault/internal/core/domain"
)

// AnswerService answers questions from confidently retrieved context.
type AnswerService interface {
	// Ask answers a question. Provider failures never surface as errors;
	// they produce a local answer with the reason in the metadata.
	Ask(ctx context.Context, query string) (*domain.Answer, error)
}

// EvalService scores retrieval against a golden question set.
type EvalService interface {
	// Run evaluates every case and aggregates the pass rate.
	Run(ctx context.Context, cases []domain.EvalCase) (*domain.EvalReport, error)
}
