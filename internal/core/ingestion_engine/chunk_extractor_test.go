package ingestion_engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int, prefix string) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(w, " ")
}

func TestNewChunker_Options(t *testing.T) {
	c := NewChunker()
	assert.Equal(t, 500, c.maxTokens)
	assert.Equal(t, 50, c.overlap)

	c = NewChunker(WithMaxTokens(100), WithOverlap(10))
	assert.Equal(t, 100, c.maxTokens)
	assert.Equal(t, 10, c.overlap)

	c = NewChunker(WithMaxTokens(-1), WithOverlap(-5))
	assert.Equal(t, 500, c.maxTokens)
	assert.Equal(t, 50, c.overlap)

	c = NewChunker(WithMaxTokens(40), WithOverlap(40))
	assert.Equal(t, 10, c.overlap)
}

func TestChunk_HeadingsAndLongSection(t *testing.T) {
	body := words(600, "w")
	text := "1.1 Overview\nThis is a short intro.\n\n1.2 Details\n" + body

	chunks := NewChunker(WithMaxTokens(500), WithOverlap(50)).Chunk(text)

	require.Len(t, chunks, 3)

	assert.Equal(t, "1.1 Overview\nThis is a short intro.", chunks[0].Text)
	assert.Equal(t, 6, chunks[0].TokenCount)
	assert.Equal(t, "1.1 Overview", chunks[0].Metadata.Section)

	assert.Equal(t, 500, chunks[1].TokenCount)
	assert.Equal(t, "1.2 Details", chunks[1].Metadata.Section)
	assert.Equal(t, 152, chunks[2].TokenCount)
	assert.Empty(t, chunks[2].Metadata.Section)

	first := strings.Fields(chunks[1].Text)
	second := strings.Fields(chunks[2].Text)
	assert.Equal(t, first[len(first)-50:], second[:50])
	assert.Equal(t, "w599", second[len(second)-1])
}

func TestChunk_WindowsOverlapExactly(t *testing.T) {
	text := words(1000, "x")

	chunks := NewChunker(WithMaxTokens(300), WithOverlap(30)).Chunk(text)

	require.Len(t, chunks, 4)
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		cur := strings.Fields(chunks[i].Text)
		assert.Equal(t, prev[len(prev)-30:], cur[:30], "window %d", i)
	}
	assert.Equal(t, 1000-3*270, chunks[3].TokenCount)
}

func TestChunk_OffsetsAreExact(t *testing.T) {
	repeated := strings.Repeat("alpha beta gamma ", 200)
	text := "Question: What is the scope?\nalpha beta\n\nAnswer: alpha beta\n\n" + repeated + "\n\n2 Pricing\n" + repeated

	chunks := NewChunker(WithMaxTokens(120), WithOverlap(20)).Chunk(text)
	require.NotEmpty(t, chunks)

	last := -1
	for _, ch := range chunks {
		assert.Equal(t, ch.Text, text[ch.CharStart:ch.CharEnd])
		assert.Equal(t, len(strings.Fields(ch.Text)), ch.TokenCount)
		assert.Greater(t, ch.CharStart, last)
		last = ch.CharStart
	}
}

func TestChunk_CoversEveryWord(t *testing.T) {
	text := "1 Intro\nshort\n\n" + words(730, "a") + "\n\nQuestion: one?\nAnswer: two."

	chunks := NewChunker(WithMaxTokens(200), WithOverlap(25)).Chunk(text)

	for _, w := range wordSpans(text) {
		covered := false
		for _, ch := range chunks {
			if w.start >= ch.CharStart && w.end <= ch.CharEnd {
				covered = true
				break
			}
		}
		assert.True(t, covered, "word %q not covered", text[w.start:w.end])
	}
}

func TestChunk_SegmentWithinLimitIsOneChunk(t *testing.T) {
	for _, n := range []int{50, 120, 500} {
		seg := words(n, "t")
		chunks := NewChunker().Chunk(seg)
		require.Len(t, chunks, 1, "n=%d", n)
		assert.Equal(t, seg, chunks[0].Text)
		assert.Equal(t, n, chunks[0].TokenCount)
	}
}

func TestChunk_ShortSegmentsAreNotMerged(t *testing.T) {
	text := "Question: Do you support SSO?\nAnswer: Yes, via SAML."

	chunks := NewChunker().Chunk(text)

	require.Len(t, chunks, 2)
	assert.True(t, chunks[0].Metadata.IsQuestion)
	assert.False(t, chunks[0].Metadata.IsAnswer)
	assert.True(t, chunks[1].Metadata.IsAnswer)
	assert.Equal(t, "Answer: Yes, via SAML.", chunks[1].Text)
}

func TestChunk_ParagraphsSplitInsideSection(t *testing.T) {
	text := "3.2 Security\nFirst paragraph.\n\nSecond paragraph."

	chunks := NewChunker().Chunk(text)

	require.Len(t, chunks, 2)
	assert.Equal(t, "3.2 Security\nFirst paragraph.", chunks[0].Text)
	assert.Equal(t, "Second paragraph.", chunks[1].Text)
	assert.Equal(t, len(text)-len("Second paragraph."), chunks[1].CharStart)
}

func TestChunk_Empty(t *testing.T) {
	assert.Empty(t, NewChunker().Chunk(""))
	assert.Empty(t, NewChunker().Chunk("\n\n  \n"))
}

func TestDeriveMetadata(t *testing.T) {
	tests := []struct {
		in   string
		want string
		q, a bool
	}{
		{"4.2.1 Data Retention\nbody", "4.2.1 Data Retention", false, false},
		{"question: is it hosted?", "", true, false},
		{"ANSWER: on premise", "", false, true},
		{"Plain text", "", false, false},
	}
	for _, tt := range tests {
		m := deriveMetadata(tt.in)
		assert.Equal(t, tt.want, m.Section, tt.in)
		assert.Equal(t, tt.q, m.IsQuestion, tt.in)
		assert.Equal(t, tt.a, m.IsAnswer, tt.in)
	}
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens("   "))
	assert.Equal(t, 3, CountTokens(" one\ttwo\nthree "))
}
