package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure LLMSummarizer implements the interface.
var _ driven.Summarizer = (*LLMSummarizer)(nil)

// LLMSummarizer answers a query from its top hits with the configured LLM.
type LLMSummarizer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewLLMSummarizer creates a summarizer. prompts may be nil.
func NewLLMSummarizer(llm driven.LLMService, prompts driven.PromptStore) *LLMSummarizer {
	return &LLMSummarizer{llm: llm, prompts: prompts}
}

// Summarize returns a short answer citing hits as [n]. No hits yields "".
func (s *LLMSummarizer) Summarize(ctx context.Context, query string, hits []domain.FusedHit) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	if len(hits) == 0 {
		return "", nil
	}

	var b strings.Builder
	for i := range hits {
		fmt.Fprintf(&b, "[%d] %s (%s)\n", i+1, hits[i].Title, hits[i].URL)
		if snippet := strings.TrimSpace(hits[i].Snippet); snippet != "" {
			b.WriteString(truncateRunes(snippet, 400))
			b.WriteByte('\n')
		}
	}

	template := loadPrompt(s.prompts, driven.PromptSummarise, defaultSummarisePrompt)
	answer, err := s.llm.Generate(ctx, fmt.Sprintf(template, query, b.String()), driven.GenerateOptions{
		MaxTokens:   300,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("summarise: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
