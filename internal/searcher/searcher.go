package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lotscope/lotscope/internal/embedder"
	"github.com/lotscope/lotscope/internal/storage"
	"github.com/lotscope/lotscope/pkg/types"
)

const (
	// DefaultRRFConstant is the k value for Reciprocal Rank Fusion.
	DefaultRRFConstant = 60.0

	// poolMultiplier widens each branch's candidate pool beyond the
	// requested limit so fusion has overlap to work with.
	poolMultiplier = 3

	defaultLimit = 10
	maxLimit     = 50
)

// Request contains parameters for an ordinance search.
type Request struct {
	// Municipality is a case-insensitive substring filter. Empty
	// searches every municipality.
	Municipality string
	Query        string
	Limit        int
	Mode         types.SearchMode

	// Embedding, when non-nil, is used as the query vector directly and
	// the embedder is not called.
	Embedding []float32

	UseCache bool
	CacheTTL time.Duration
}

// Response contains search results and metadata.
type Response struct {
	Results      []types.SearchResult
	TotalResults int

	// Mode is the mode actually used. A hybrid request that could not
	// embed its query reports keyword here.
	Mode types.SearchMode

	Duration      time.Duration
	CacheHit      bool
	VectorResults int
	TextResults   int
}

type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Searcher coordinates vector and text retrieval over a chunk store.
type Searcher struct {
	storage  storage.Storage
	embedder embedder.Embedder
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// NewSearcher creates a new Searcher instance
func NewSearcher(store storage.Storage, emb embedder.Embedder) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		storage:  store,
		embedder: emb,
		cache:    cache,
	}
}

// Search executes the request. Hybrid mode runs both retrieval branches
// concurrently; if embedding the query fails the lexical branch alone
// serves the request and the response reports keyword mode.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	var response *Response
	var err error

	switch req.Mode {
	case types.SearchModeHybrid:
		response, err = s.hybridSearch(ctx, req)
	case types.SearchModeKeyword:
		response, err = s.keywordSearch(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode)
	}

	if err != nil {
		return nil, err
	}

	response.Duration = time.Since(startTime)

	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

type branchResult struct {
	vectorResults []storage.VectorResult
	textResults   []storage.TextResult
	err           error
}

// queryVector resolves the query embedding, preferring a pre-computed
// vector on the request.
func (s *Searcher) queryVector(ctx context.Context, req Request) ([]float32, error) {
	if req.Embedding != nil {
		return req.Embedding, nil
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	emb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
		Text: req.Query,
		Role: embedder.RoleQuery,
	})
	if err != nil {
		return nil, err
	}
	return emb.Vector, nil
}

func (s *Searcher) runVectorSearch(ctx context.Context, req Request, pool int, resultChan chan<- branchResult) {
	var res branchResult
	vector, err := s.queryVector(ctx, req)
	if err != nil {
		res.err = fmt.Errorf("failed to generate query embedding: %w", err)
	} else {
		res.vectorResults, res.err = s.storage.SearchVector(ctx, req.Municipality, vector, pool)
	}
	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

func (s *Searcher) runTextSearch(ctx context.Context, req Request, pool int, resultChan chan<- branchResult) {
	var res branchResult
	res.textResults, res.err = s.storage.SearchText(ctx, req.Municipality, req.Query, pool)
	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

// hybridSearch combines vector and BM25 results with Reciprocal Rank Fusion.
func (s *Searcher) hybridSearch(ctx context.Context, req Request) (*Response, error) {
	pool := req.Limit * poolMultiplier
	vectorChan := make(chan branchResult, 1)
	textChan := make(chan branchResult, 1)

	go s.runVectorSearch(ctx, req, pool, vectorChan)
	go s.runTextSearch(ctx, req, pool, textChan)

	var vectorRes, textRes branchResult
	var vectorDone, textDone bool
	for !vectorDone || !textDone {
		select {
		case vectorRes = <-vectorChan:
			vectorDone = true
		case textRes = <-textChan:
			textDone = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if textRes.err != nil {
		if vectorRes.err != nil {
			return nil, fmt.Errorf("both searches failed: vector=%w, text=%v", vectorRes.err, textRes.err)
		}
		return nil, textRes.err
	}

	// Embedding or vector failure degrades to keyword-only results.
	if vectorRes.err != nil {
		log.Printf("hybrid search degraded to keyword: %v", vectorRes.err)
		ranked := rankTextResults(textRes.textResults)
		results, err := s.fetchResults(ctx, ranked, req.Limit)
		if err != nil {
			return nil, err
		}
		return &Response{
			Results:      results,
			TotalResults: len(results),
			Mode:         types.SearchModeKeyword,
			TextResults:  len(textRes.textResults),
		}, nil
	}

	rrf := applyRRF(vectorRes.vectorResults, textRes.textResults, DefaultRRFConstant)
	results, err := s.fetchResults(ctx, rrf, req.Limit)
	if err != nil {
		return nil, err
	}

	return &Response{
		Results:       results,
		TotalResults:  len(results),
		Mode:          types.SearchModeHybrid,
		VectorResults: len(vectorRes.vectorResults),
		TextResults:   len(textRes.textResults),
	}, nil
}

// keywordSearch performs only BM25 text search.
func (s *Searcher) keywordSearch(ctx context.Context, req Request) (*Response, error) {
	textResults, err := s.storage.SearchText(ctx, req.Municipality, req.Query, req.Limit*poolMultiplier)
	if err != nil {
		return nil, err
	}

	results, err := s.fetchResults(ctx, rankTextResults(textResults), req.Limit)
	if err != nil {
		return nil, err
	}

	return &Response{
		Results:      results,
		TotalResults: len(results),
		Mode:         types.SearchModeKeyword,
		TextResults:  len(textResults),
	}, nil
}

type rankedResult struct {
	chunkID int64
	score   float64
}

func rankTextResults(textResults []storage.TextResult) []rankedResult {
	ranked := make([]rankedResult, len(textResults))
	for i, tr := range textResults {
		ranked[i] = rankedResult{chunkID: tr.ChunkID, score: tr.BM25Score}
	}
	return ranked
}

// applyRRF fuses the two branches: RRF(d) = sum over branches of
// 1/(k + rank(d)). Ties break on chunk ID for deterministic output.
func applyRRF(vectorResults []storage.VectorResult, textResults []storage.TextResult, k float64) []rankedResult {
	if k == 0 {
		k = DefaultRRFConstant
	}

	scores := make(map[int64]float64)
	for rank, vr := range vectorResults {
		scores[vr.ChunkID] += 1.0 / (k + float64(rank+1))
	}
	for rank, tr := range textResults {
		scores[tr.ChunkID] += 1.0 / (k + float64(rank+1))
	}

	results := make([]rankedResult, 0, len(scores))
	for chunkID, score := range scores {
		results = append(results, rankedResult{chunkID: chunkID, score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].chunkID < results[j].chunkID
	})

	return results
}

// fetchResults loads chunk data for the top ranked results.
func (s *Searcher) fetchResults(ctx context.Context, ranked []rankedResult, limit int) ([]types.SearchResult, error) {
	if limit > len(ranked) {
		limit = len(ranked)
	}

	results := make([]types.SearchResult, 0, limit)
	for i := 0; i < limit; i++ {
		rr := ranked[i]
		chunk, err := s.storage.GetChunk(ctx, rr.chunkID)
		if err != nil {
			continue // deleted between ranking and fetch
		}

		results = append(results, types.SearchResult{
			ChunkID:      chunk.ID,
			Municipality: chunk.Municipality,
			County:       chunk.County,
			Chapter:      chunk.Chapter,
			Section:      chunk.Section,
			SectionTitle: chunk.SectionTitle,
			ZoneCodes:    chunk.ZoneCodes,
			Text:         chunk.Content,
			Score:        rr.score,
		})
	}

	return results, nil
}

func (s *Searcher) validateRequest(req *Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}

	if req.Mode == "" {
		req.Mode = types.SearchModeHybrid
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = 1 * time.Hour
	}

	return nil
}

func (s *Searcher) checkCache(req Request) *Response {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

func (s *Searcher) storeInCache(req Request, response *Response) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// InvalidateCache drops every cached query. Called after re-ingesting a
// municipality; the LRU offers no per-key filtering, and invalidation
// is rare enough that a full purge is fine.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

func copyResponse(src *Response) *Response {
	if src == nil {
		return nil
	}

	dst := &Response{
		TotalResults:  src.TotalResults,
		Mode:          src.Mode,
		Duration:      src.Duration,
		CacheHit:      src.CacheHit,
		VectorResults: src.VectorResults,
		TextResults:   src.TextResults,
		Results:       make([]types.SearchResult, len(src.Results)),
	}
	for i, r := range src.Results {
		dst.Results[i] = r
		dst.Results[i].ZoneCodes = append([]string(nil), r.ZoneCodes...)
	}
	return dst
}

func computeQueryHash(req Request) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(string(req.Mode))
	data.WriteString("|")
	data.WriteString(req.Municipality)
	data.WriteString("|")
	data.WriteString(fmt.Sprintf("%d", req.Limit))
	return sha256.Sum256([]byte(data.String()))
}
