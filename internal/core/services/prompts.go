package services

import "github.com/custodia-labs/sercha-discover/internal/core/ports/driven"

// defaultQueryRewritePrompt is used when no PromptStore is configured.
const defaultQueryRewritePrompt = `Rewrite this search query to improve recall. Add synonyms and fix typos.
Return ONLY the rewritten query, nothing else.

Original: %s
Rewritten:`

// defaultSummarisePrompt is used when no PromptStore is configured.
const defaultSummarisePrompt = `Answer the search query below in at most three sentences,
using only the numbered results. Cite results as [n].

Query: %s

Results:
%s

Answer:`

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func loadPrompt(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}
