package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeading(t *testing.T) {
	tests := []struct {
		heading string
		chapter string
		section string
		title   string
	}{
		{"Sec. 33-284. - Development standards.", "33", "Sec. 33-284", "Development standards"},
		{"Sec. 4.3 - Setbacks", "", "Sec. 4.3", "Setbacks"},
		{"SEC. 155-12 Parking requirements", "155", "Sec. 155-12", "Parking requirements"},
		{"Sec. 7", "", "Sec. 7", ""},
		{"General provisions", "", "", "General provisions"},
	}

	for _, tt := range tests {
		chapter, section, title := ParseHeading(tt.heading)
		assert.Equal(t, tt.chapter, chapter, tt.heading)
		assert.Equal(t, tt.section, section, tt.heading)
		assert.Equal(t, tt.title, title, tt.heading)
	}
}

func TestExtractZoneCodes(t *testing.T) {
	text := "The RS-8 and RM 18 districts allow duplexes. In T6-80 zones see RS-8 rules."
	codes := ExtractZoneCodes(text)
	assert.Equal(t, []string{"RM-18", "RS-8", "T6-80"}, codes)

	assert.Nil(t, ExtractZoneCodes("no districts are mentioned here"))
}

func TestExtractZoneCodesSkipsSectionRefs(t *testing.T) {
	codes := ExtractZoneCodes("SEC 33-284 references the RU-1 district")
	assert.Equal(t, []string{"RU-1"}, codes)
}

func TestChunkSectionSmall(t *testing.T) {
	c := New()
	chunks, dropped := c.ChunkSection(Section{
		Municipality: "Hollywood",
		County:       "Broward",
		Heading:      "Sec. 4.3 - Setbacks",
		Text:         "Front setbacks in the RS-8 district shall be twenty-five feet minimum.",
		NodeID:       "n1",
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, dropped)
	assert.Equal(t, "Hollywood", chunks[0].Municipality)
	assert.Equal(t, "Sec. 4.3", chunks[0].Section)
	assert.Equal(t, "Setbacks", chunks[0].SectionTitle)
	assert.Equal(t, []string{"RS-8"}, chunks[0].ZoneCodes)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, "n1", chunks[0].NodeID)
}

func TestChunkSectionDropsShortFragments(t *testing.T) {
	c := New()
	chunks, dropped := c.ChunkSection(Section{Text: "Too short."})
	assert.Empty(t, chunks)
	assert.Equal(t, 1, dropped)
}

func TestChunkSectionSplitsAtParagraphs(t *testing.T) {
	para := strings.Repeat("All residential construction shall comply with these rules. ", 15) // ~870 chars
	text := para + "\n\n" + para + "\n\n" + para

	c := New()
	chunks, _ := c.ChunkSection(Section{
		Municipality: "Davie",
		County:       "Broward",
		Heading:      "Sec. 12-30. - District regulations.",
		Text:         text,
	})

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), MaxChunkSize, "chunk %d too large", i)
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, "Sec. 12-30", chunk.Section)
	}

	// Consecutive chunks share overlap text.
	head := chunks[1].Content[:50]
	assert.Contains(t, chunks[0].Content, head)
}

func TestChunkSectionHardSplitsLongParagraph(t *testing.T) {
	text := strings.Repeat("density limits apply ", 200) // ~4200 chars, no paragraph breaks

	c := New()
	chunks, _ := c.ChunkSection(Section{Text: text})

	require.Greater(t, len(chunks), 2)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), MaxChunkSize)
	}
}
