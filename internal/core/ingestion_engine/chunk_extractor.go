package ingestion_engine

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/markdave123-py/rfpsearch/internal/models"
)

const (
	DefaultMaxTokens = 500
	DefaultOverlap   = 50
)

var (
	headingLine  = regexp.MustCompile(`^\d+(\.\d+)*\s+`)
	qaLine       = regexp.MustCompile(`(?i)^(Question:|Answer:)`)
	headingTitle = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s+(.+)`)
	questionLine = regexp.MustCompile(`(?i)^Question:`)
	answerLine   = regexp.MustCompile(`(?i)^Answer:`)
)

// TextChunk is one chunk produced from normalized text.
//
// CharStart/CharEnd are byte offsets into the text given to Chunk, and
// text[CharStart:CharEnd] == Text always holds.
type TextChunk struct {
	Text       string
	TokenCount int
	CharStart  int
	CharEnd    int
	Metadata   models.ChunkMetadata
}

// Chunker splits normalized text into heading and Q&A aware chunks,
// re-splitting long segments into overlapping word windows.
type Chunker struct {
	maxTokens int
	overlap   int
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithMaxTokens sets the largest segment kept as a single chunk.
func WithMaxTokens(n int) ChunkerOption {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithOverlap sets how many words consecutive windows share.
func WithOverlap(n int) ChunkerOption {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// NewChunker creates a chunker with 500/50 defaults. An overlap that would
// stop windows from advancing is reduced to a quarter of the window.
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{maxTokens: DefaultMaxTokens, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.maxTokens {
		c.overlap = c.maxTokens / 4
	}
	return c
}

// Chunk splits text into chunks in source order.
//
// Segments that fit in maxTokens are kept whole, however short. Longer ones
// become windows of maxTokens words advancing by maxTokens-overlap.
func (c *Chunker) Chunk(text string) []TextChunk {
	var out []TextChunk
	for _, seg := range splitSegments(text) {
		body := text[seg.start:seg.end]
		words := wordSpans(body)
		if len(words) == 0 {
			continue
		}

		if len(words) <= c.maxTokens {
			out = append(out, TextChunk{
				Text:       body,
				TokenCount: len(words),
				CharStart:  seg.start,
				CharEnd:    seg.end,
				Metadata:   deriveMetadata(body),
			})
			continue
		}

		for start := 0; start < len(words); {
			end := min(start+c.maxTokens, len(words))
			lo, hi := words[start].start, words[end-1].end
			piece := body[lo:hi]
			out = append(out, TextChunk{
				Text:       piece,
				TokenCount: end - start,
				CharStart:  seg.start + lo,
				CharEnd:    seg.start + hi,
				Metadata:   deriveMetadata(piece),
			})
			if end == len(words) {
				break
			}
			start = end - c.overlap
		}
	}
	return out
}

type span struct {
	start int
	end   int
}

// splitSegments returns the trimmed spans of text separated by blank lines,
// with a new span started at every heading or Question:/Answer: line.
func splitSegments(text string) []span {
	var (
		segs    []span
		cur     = span{start: -1}
		lineBeg = 0
	)

	flush := func() {
		if cur.start < 0 {
			return
		}
		if s, ok := trimSpan(text, cur); ok {
			segs = append(segs, s)
		}
		cur = span{start: -1}
	}

	for lineBeg <= len(text) {
		lineEnd := strings.IndexByte(text[lineBeg:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += lineBeg
		}
		line := text[lineBeg:lineEnd]

		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case headingLine.MatchString(line) || qaLine.MatchString(line):
			flush()
			cur = span{start: lineBeg, end: lineEnd}
		default:
			if cur.start < 0 {
				cur.start = lineBeg
			}
			cur.end = lineEnd
		}

		lineBeg = lineEnd + 1
	}
	flush()
	return segs
}

func trimSpan(text string, s span) (span, bool) {
	body := text[s.start:s.end]
	left := len(body) - len(strings.TrimLeftFunc(body, unicode.IsSpace))
	right := len(strings.TrimRightFunc(body, unicode.IsSpace))
	if left >= right {
		return span{}, false
	}
	return span{start: s.start + left, end: s.start + right}, true
}

// wordSpans returns the byte spans of whitespace-delimited words, the same
// words strings.Fields would return.
func wordSpans(s string) []span {
	var (
		words []span
		start = -1
	)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, span{start: start, end: i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
		i += size
	}
	if start >= 0 {
		words = append(words, span{start: start, end: len(s)})
	}
	return words
}

// CountTokens approximates tokens as whitespace-delimited words.
func CountTokens(s string) int {
	return len(strings.Fields(s))
}

func deriveMetadata(chunkText string) models.ChunkMetadata {
	first, _, _ := strings.Cut(chunkText, "\n")
	first = strings.TrimSpace(first)

	var meta models.ChunkMetadata
	if m := headingTitle.FindStringSubmatch(first); m != nil {
		meta.Section = m[1] + " " + m[2]
	}
	meta.IsQuestion = questionLine.MatchString(first)
	meta.IsAnswer = answerLine.MatchString(first)
	return meta
}
