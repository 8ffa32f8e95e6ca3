package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/rfpsearch/internal/core"
)

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"":         ModeHybrid,
		"hybrid":   ModeHybrid,
		"keyword":  ModeKeyword,
		"fts":      ModeKeyword,
		"FTS":      ModeKeyword,
		"semantic": ModeSemantic,
		"vector":   ModeSemantic,
		"nonsense": ModeHybrid,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseMode(in), "input %q", in)
	}
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"trimmed", "  security compliance  ", "security compliance", false},
		{"two characters", "ab", "ab", false},
		{"empty", "   ", "", true},
		{"too short", "a", "", true},
		{"too long", strings.Repeat("x", MaxQueryLength+1), "", true},
		{"max length", strings.Repeat("x", MaxQueryLength), strings.Repeat("x", MaxQueryLength), false},
		{"comment token", "price -- list", "", true},
		{"statement separator", "a; b", "", true},
		{"block comment", "a /* b", "", true},
		{"drop keyword", "DROP table chunks", "", true},
		{"extended procedure", "xp_cmdshell", "", true},
		{"keyword inside word", "executive summary", "executive summary", false},
		{"deleted inside word", "undeleted records", "undeleted records", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateQuery(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, core.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateTopK(t *testing.T) {
	assert.NoError(t, ValidateTopK(1, 100))
	assert.NoError(t, ValidateTopK(100, 100))
	assert.ErrorIs(t, ValidateTopK(0, 100), core.ErrInvalidInput)
	assert.ErrorIs(t, ValidateTopK(101, 100), core.ErrInvalidInput)
}

func TestParseTopK(t *testing.T) {
	n, err := ParseTopK("")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = ParseTopK("25")
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	for _, bad := range []string{"abc", "0", "-3", "2.5"} {
		_, err := ParseTopK(bad)
		assert.ErrorIs(t, err, core.ErrInvalidInput, "input %q", bad)
	}
}

func TestParseAlpha(t *testing.T) {
	a, err := ParseAlpha("")
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = ParseAlpha("0.25")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 0.25, *a)

	for _, bad := range []string{"x", "-0.1", "1.5", "NaN"} {
		_, err := ParseAlpha(bad)
		assert.ErrorIs(t, err, core.ErrInvalidInput, "input %q", bad)
	}
}
