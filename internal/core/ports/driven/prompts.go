package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptQueryRewrite expands search queries for better recall.
	// The template expects a %s placeholder for the original query.
	PromptQueryRewrite = "query_rewrite"

	// PromptSummarise answers a query from numbered search hits.
	// The template expects %s (query) and %s (hits) placeholders.
	PromptSummarise = "summarise"
)
