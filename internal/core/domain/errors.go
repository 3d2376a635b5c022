package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition indicates an illegal job status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Features requiring LLM (query rewriting, summarisation) are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector/semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates the internal search index is not configured.
	ErrSearchUnavailable = errors.New("search engine unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// External search errors.

	// ErrProviderUnavailable indicates an external provider failed, timed out,
	// is unconfigured or has its breaker open. Recoverable by falling back.
	ErrProviderUnavailable = errors.New("search provider unavailable")

	// ErrAllProvidersDown indicates external search was requested, every
	// provider failed and the internal search failed too.
	ErrAllProvidersDown = errors.New("all search providers down")

	// Ingestion errors.

	// ErrFetchFailure indicates a page could not be fetched after retries.
	ErrFetchFailure = errors.New("fetch failure")

	// ErrQualityRejected indicates extracted content scored below the minimum.
	// This is a policy outcome, recorded with its own reason code.
	ErrQualityRejected = errors.New("quality rejected")

	// ErrDuplicateURL indicates the canonical URL is already stored for the owner.
	ErrDuplicateURL = errors.New("duplicate url")

	// ErrInvalidSession indicates an unknown, expired or exhausted search session.
	ErrInvalidSession = errors.New("invalid search session")
)
