// Package searcher fuses vector and lexical retrieval over ordinance
// chunks. Hybrid search runs both branches concurrently and merges them
// with Reciprocal Rank Fusion; when query embedding fails the search
// degrades to keyword-only instead of erroring, so retrieval keeps
// working without an embedding provider.
package searcher
