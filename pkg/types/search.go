package types

// SearchMode indicates how an ordinance search was executed.
type SearchMode string

const (
	// SearchModeHybrid fuses vector and lexical rankings.
	SearchModeHybrid SearchMode = "hybrid"
	// SearchModeKeyword is the lexical-only degraded mode used when no
	// query embedding is available.
	SearchModeKeyword SearchMode = "keyword"
)

// SearchResult is one ranked ordinance chunk returned by a search.
type SearchResult struct {
	ChunkID      int64    `json:"chunk_id"`
	Municipality string   `json:"municipality"`
	County       string   `json:"county"`
	Chapter      string   `json:"chapter,omitempty"`
	Section      string   `json:"section,omitempty"`
	SectionTitle string   `json:"section_title,omitempty"`
	ZoneCodes    []string `json:"zone_codes,omitempty"`
	Text         string   `json:"text"`
	Score        float64  `json:"score"`
}
