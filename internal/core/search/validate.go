package search

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/markdave123-py/rfpsearch/internal/core"
)

const (
	MinQueryLength = 2
	MaxQueryLength = 500
)

// SQL control tokens rejected on top of parameterized queries. Keywords only
// match as whole words so ordinary text such as "executive" passes.
var sqlDenylist = regexp.MustCompile(`(?i)(--|;|/\*|\*/|\bxp_|\bsp_|\b(exec|execute|drop|delete|truncate|alter)\b)`)

// ValidateQuery trims q and checks its length and content.
func ValidateQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", fmt.Errorf("%w: query parameter \"q\" is required", core.ErrInvalidInput)
	}
	n := utf8.RuneCountInString(q)
	if n < MinQueryLength || n > MaxQueryLength {
		return "", fmt.Errorf("%w: query must be between %d and %d characters", core.ErrInvalidInput, MinQueryLength, MaxQueryLength)
	}
	if sqlDenylist.MatchString(q) {
		return "", fmt.Errorf("%w: query contains invalid characters or patterns", core.ErrInvalidInput)
	}
	return q, nil
}

// ValidateTopK checks 1 <= topK <= maxTopK.
func ValidateTopK(topK, maxTopK int) error {
	if topK < 1 || topK > maxTopK {
		return fmt.Errorf("%w: topK must be between 1 and %d", core.ErrInvalidInput, maxTopK)
	}
	return nil
}

// ValidateAlpha checks 0 <= alpha <= 1.
func ValidateAlpha(alpha float64) error {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return fmt.Errorf("%w: alpha must be between 0.0 and 1.0", core.ErrInvalidInput)
	}
	return nil
}

// ParseTopK reads a topK query parameter. Empty means zero, the engine default.
func ParseTopK(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: topK must be an integer", core.ErrInvalidInput)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: topK must be at least 1", core.ErrInvalidInput)
	}
	return n, nil
}

// ParseAlpha reads an alpha query parameter. Empty means nil, the engine default.
func ParseAlpha(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	a, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: alpha must be a number", core.ErrInvalidInput)
	}
	if err := ValidateAlpha(a); err != nil {
		return nil, err
	}
	return &a, nil
}
