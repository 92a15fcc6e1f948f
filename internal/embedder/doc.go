// Package embedder generates text embeddings for ordinance retrieval.
//
// Providers are selected by configuration: Jina AI (the default for
// hosted deployments, with asymmetric query/passage task types), OpenAI,
// or a deterministic local provider for offline use and tests. All
// providers share an LRU cache keyed by content hash and role.
package embedder
