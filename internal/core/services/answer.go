package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
	"github.com/custodia-labs/ragvault/internal/core/ports/driving"
	"github.com/custodia-labs/ragvault/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// promptContexts caps the contexts sent to the answer provider.
const promptContexts = 4

// answerTemperature keeps remote answers close to the context.
const answerTemperature = 0.2

// AnswerService answers questions from gated context. The LLM is optional;
// without one, or when it fails, answers come from the local heuristic.
type AnswerService struct {
	retriever *Retriever
	llm       driven.LLMService
	prompts   driven.PromptStore
	settings  domain.RetrievalSettings
}

// NewAnswerService creates an answer service. llm may be nil.
func NewAnswerService(
	retriever *Retriever, llm driven.LLMService, prompts driven.PromptStore, settings domain.RetrievalSettings,
) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
		settings:  settings,
	}
}

// Ask retrieves, gates and answers. Only an empty query or a failure to
// embed or search returns an error.
func (s *AnswerService) Ask(ctx context.Context, query string) (*domain.Answer, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	candidates, err := s.retriever.Retrieve(ctx, q)
	if err != nil {
		return nil, err
	}
	contexts := Gate(candidates, s.settings)

	citations := make([]domain.Citation, 0, len(contexts))
	for _, c := range contexts {
		citations = append(citations, domain.CitationFor(c))
	}

	text, meta := s.AnswerFrom(ctx, q, contexts)
	return &domain.Answer{Text: text, Citations: citations, Meta: meta}, nil
}

// AnswerFrom produces an answer from already selected contexts, best first.
// It never fails: every problem becomes a local answer with a reason.
func (s *AnswerService) AnswerFrom(
	ctx context.Context, question string, contexts []domain.RetrievedContext,
) (string, domain.AnswerMeta) {
	if len(contexts) == 0 {
		return domain.NoInformationAnswer, localMeta(domain.FallbackNoContexts, nil)
	}

	block := formatContexts(contexts[:min(len(contexts), promptContexts)])
	if block == "" {
		return domain.NoInformationAnswer, localMeta(domain.FallbackEmptyContext, nil)
	}

	if s.llm == nil {
		return LocalAnswer(question, contexts), localMeta(domain.FallbackNotConfigured, nil)
	}

	messages, err := s.messages(question, block)
	if err != nil {
		logger.Warn("answer prompts: %v", err)
		return LocalAnswer(question, contexts), localMeta(domain.FallbackProviderError, err)
	}

	resp, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: answerTemperature})
	if err != nil {
		logger.Warn("%s failed, answering locally: %v", s.llm.ModelName(), err)
		return LocalAnswer(question, contexts), localMeta(domain.FallbackProviderError, err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return LocalAnswer(question, contexts), localMeta(domain.FallbackEmptyCompletion, nil)
	}

	meta := domain.AnswerMeta{
		Provider:  domain.AnswerProviderRemote,
		Model:     s.llm.ModelName(),
		RequestID: resp.RequestID,
	}
	if resp.TotalTokens > 0 {
		meta.Usage = &domain.TokenUsage{
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
			TotalTokens:      resp.TotalTokens,
		}
	}
	return text, meta
}

func (s *AnswerService) messages(question, block string) ([]driven.ChatMessage, error) {
	if s.prompts == nil {
		return nil, fmt.Errorf("no prompt store configured")
	}
	system, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return nil, err
	}
	user, err := s.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return nil, err
	}
	return []driven.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf(user, question, block)},
	}, nil
}

// formatContexts renders contexts as "[path:chunk score=0.000]\ntext"
// blocks separated by blank lines. Empty texts are skipped.
func formatContexts(contexts []domain.RetrievedContext) string {
	parts := make([]string, 0, len(contexts))
	for _, c := range contexts {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s:%d score=%.3f]\n%s", c.SourcePath, c.ChunkID, c.Score, text))
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

func localMeta(reason domain.FallbackReason, err error) domain.AnswerMeta {
	meta := domain.AnswerMeta{Provider: domain.AnswerProviderLocal, Reason: reason}
	if err != nil {
		meta.Error = err.Error()
	}
	return meta
}
