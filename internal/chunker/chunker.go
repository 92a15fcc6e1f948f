package chunker

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lotscope/lotscope/internal/storage"
)

const (
	// MaxChunkSize is the target maximum chunk length in characters.
	MaxChunkSize = 1500

	// Overlap is how many trailing characters of one chunk are repeated
	// at the start of the next.
	Overlap = 200

	// MinChunkChars drops fragments too short to be a useful hit.
	MinChunkChars = 50
)

// Section is one ordinance section to be chunked.
type Section struct {
	Municipality string
	County       string
	Heading      string // e.g. "Sec. 33-284. - Development standards."
	Text         string
	NodeID       string
}

// headingPattern matches municode-style section headings:
// "Sec. 33-284. - Development standards." or "Sec. 4.3 - Setbacks".
var headingPattern = regexp.MustCompile(`(?i)^sec\.?\s+([0-9]+(?:[-.][0-9A-Za-z.]+)*)\.?\s*(?:[-\x{2013}]\s*)?(.*)$`)

// zoneCodePattern matches zoning district designators: a short
// uppercase prefix, an optional separator, and a numeric part with
// optional decimal or suffix (RS-8, RM 18, T6-80, PUD-4/A).
var zoneCodePattern = regexp.MustCompile(`\b[A-Z]{1,4}[-\s]?\d{1,3}(?:\.\d{1,2})?(?:[-/][A-Z0-9]+)?\b`)

// ParseHeading splits a section heading into chapter, section number,
// and title. The chapter is the leading number group of a hyphenated
// section number ("33-284" lives in chapter 33); a plain number has no
// chapter.
func ParseHeading(heading string) (chapter, section, title string) {
	m := headingPattern.FindStringSubmatch(strings.TrimSpace(heading))
	if m == nil {
		return "", "", strings.TrimSpace(heading)
	}

	section = "Sec. " + m[1]
	title = strings.TrimSpace(strings.Trim(m[2], "-. \t"))

	if idx := strings.Index(m[1], "-"); idx > 0 {
		chapter = m[1][:idx]
	}
	return chapter, section, title
}

// ExtractZoneCodes pulls zoning district designators out of text.
// Matches are normalized to dashed uppercase form, deduplicated, and
// returned sorted.
func ExtractZoneCodes(text string) []string {
	matches := zoneCodePattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var codes []string
	for _, m := range matches {
		code := strings.ReplaceAll(m, " ", "-")
		if len(code) < 3 {
			continue
		}
		// Section cross-references look like zone codes; skip them.
		if strings.HasPrefix(code, "SEC") {
			continue
		}
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// Chunker splits ordinance sections into storage chunks.
type Chunker struct{}

// New creates a new Chunker instance
func New() *Chunker {
	return &Chunker{}
}

// ChunkSection splits one section into chunks. Fragments shorter than
// MinChunkChars are dropped; the second return reports how many.
func (c *Chunker) ChunkSection(sec Section) ([]*storage.Chunk, int) {
	chapter, sectionNum, title := ParseHeading(sec.Heading)

	pieces := splitText(sec.Text)

	dropped := 0
	chunks := make([]*storage.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		if len(strings.TrimSpace(piece)) < MinChunkChars {
			dropped++
			continue
		}
		chunks = append(chunks, &storage.Chunk{
			Municipality: sec.Municipality,
			County:       sec.County,
			Chapter:      chapter,
			Section:      sectionNum,
			SectionTitle: title,
			ZoneCodes:    ExtractZoneCodes(piece),
			Content:      piece,
			ChunkIndex:   len(chunks),
			NodeID:       sec.NodeID,
		})
	}
	return chunks, dropped
}

// splitText breaks text into pieces of at most MaxChunkSize characters,
// preferring paragraph boundaries, with Overlap characters carried
// between consecutive pieces.
func splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= MaxChunkSize {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")

	var pieces []string
	var current strings.Builder
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// A single paragraph that cannot fit is hard-split.
		if len(para) > MaxChunkSize {
			if current.Len() > 0 {
				pieces = append(pieces, current.String())
				current.Reset()
			}
			pieces = append(pieces, hardSplit(para)...)
			continue
		}

		if current.Len() > 0 && current.Len()+2+len(para) > MaxChunkSize {
			piece := current.String()
			pieces = append(pieces, piece)
			current.Reset()
			current.WriteString(tail(piece, Overlap))
			current.WriteString("\n\n")
		} else if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}

// hardSplit cuts an oversized paragraph at MaxChunkSize with Overlap,
// preferring the last word boundary before the cut.
func hardSplit(para string) []string {
	var pieces []string
	for len(para) > MaxChunkSize {
		cut := MaxChunkSize
		if idx := strings.LastIndexByte(para[:cut], ' '); idx > MaxChunkSize/2 {
			cut = idx
		}
		pieces = append(pieces, strings.TrimSpace(para[:cut]))
		para = tail(para[:cut], Overlap) + para[cut:]
	}
	if strings.TrimSpace(para) != "" {
		pieces = append(pieces, strings.TrimSpace(para))
	}
	return pieces
}

// tail returns the last n characters of s, starting at a word boundary
// when one exists.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	t := s[len(s)-n:]
	if idx := strings.IndexByte(t, ' '); idx >= 0 && idx < len(t)-1 {
		t = t[idx+1:]
	}
	return t
}
