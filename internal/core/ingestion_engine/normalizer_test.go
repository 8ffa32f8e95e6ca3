package ingestion_engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Steps(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"control chars", "a\x00b\x07c\td", "abc d"},
		{"curly quotes", "“Quoted” and ‘single’", `"Quoted" and 'single'`},
		{"dashes", "2019–2020 — scope", "2019-2020 - scope"},
		{"page x of y", "intro\nPage 3 of 10\nbody", "intro\n\nbody"},
		{"page x", "intro\nPage 4\nbody", "intro\n\nbody"},
		{"x of y", "intro\n4 of 12\nbody", "intro\n\nbody"},
		{"confidential any case", "ConFIDENTIAL - internal\nbody", "body"},
		{"copyright", "body\n© 2024 Acme\nCopyright Acme Corp", "body"},
		{"space runs", "a  \t  b", "a b"},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"newline runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"whitespace only lines", "a\n   \n \t \nb", "a\n\nb"},
		{"trim", "  \n a b \n  ", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fellBack := Normalize(tt.in)
			assert.False(t, fellBack)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"1.1 Overview\r\n\r\n\r\nThis  is\tthe intro.\n \n \nPage 2 of 9\n1.2 Details\n“quoted”",
		"Question: Do you comply?\n\n\n\n   \nAnswer: Yes — fully.\n",
		" leading space line\n\ttabbed line\n\n\n\nend",
		"a\n \n \n \nb",
		"Scope of work\rPage 3 of 10\rThe vendor shall comply.",
		"Intro\r\nPage 1 of 4\r\nBody\rCONFIDENTIAL\rEnd",
	}
	for _, in := range inputs {
		once, _ := Normalize(in)
		twice, _ := Normalize(once)
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestNormalize_StripsFootersOnCarriageReturnLines(t *testing.T) {
	got, fellBack := Normalize("Scope of work\rPage 3 of 10\rThe vendor shall comply.")

	assert.False(t, fellBack)
	assert.Equal(t, "Scope of work\n\nThe vendor shall comply.", got)
}

func TestNormalize_FallbackKeepsOriginal(t *testing.T) {
	in := "  Page 1 of 2\nCONFIDENTIAL\n"

	got, fellBack := Normalize(in)

	assert.True(t, fellBack)
	assert.Equal(t, strings.TrimSpace(in), got)
	assert.NotEmpty(t, got)
}

func TestNormalize_EmptyInput(t *testing.T) {
	got, fellBack := Normalize("   \n\t")
	assert.True(t, fellBack)
	assert.Empty(t, got)
}
