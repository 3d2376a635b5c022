// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SearchProvider: One external search backend (Tavily, SearXNG, ...)
//   - DocumentStore: Stored item and chunk persistence, URL dedup lookups
//   - SourceStore: Native and virtual source persistence
//   - JobStore: Ingestion job persistence with conditional transitions
//   - SessionStore: Short-lived search session cache
//   - SearchEngine: Full-text search over chunks. Always required.
//   - PageFetcher and ContentExtractor: Enriched ingestion
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VectorIndex: Vector similarity over chunk embeddings. Only used when EmbeddingService is configured.
//   - EmbeddingService: Generates vector embeddings. Without it, VectorIndex is also disabled.
//   - LLMService: Language model operations. Without it, query rewriting and summaries are disabled.
//   - Summarizer: Synthesises a short answer from the top fused hits.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
