package ingestion_engine

import (
	"regexp"
	"strings"

	"github.com/markdave123-py/rfpsearch/internal/logger"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	spaceRuns    = regexp.MustCompile(`[ \t]+`)
	newlineRuns  = regexp.MustCompile(`\n{3,}`)
	lineBreaks   = regexp.MustCompile(`\r\n|\r|\n`)

	boilerplateLines = []*regexp.Regexp{
		regexp.MustCompile(`^Page\s+\d+\s+of\s+\d+$`),
		regexp.MustCompile(`^Page\s+\d+$`),
		regexp.MustCompile(`^\d+\s+of\s+\d+$`),
		regexp.MustCompile(`(?i)^confidential`),
		regexp.MustCompile(`^(©|Copyright)`),
	}

	punctuation = strings.NewReplacer(
		"‘", "'", "’", "'", "‚", "'", "‛", "'",
		"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
		"—", "-", "–", "-",
	)
)

// Normalize cleans raw extracted text before chunking. The steps run in a
// fixed order; later steps assume the earlier cleanup.
//
// When cleaning removes everything, the trimmed input is returned instead and
// fellBack is true.
func Normalize(raw string) (text string, fellBack bool) {
	s := controlChars.ReplaceAllString(raw, "")
	s = punctuation.Replace(s)
	s = stripBoilerplate(s)
	s = spaceRuns.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = newlineRuns.ReplaceAllString(s, "\n\n")
	s = dropBlankLines(s)
	s = strings.TrimSpace(s)

	if s == "" {
		original := strings.TrimSpace(raw)
		if original != "" {
			logger.Warn("normalize: all text removed during cleanup, keeping original (%d bytes)", len(original))
		}
		return original, true
	}
	return s, false
}

// stripBoilerplate empties page header and footer lines.
func stripBoilerplate(s string) string {
	lines := lineBreaks.Split(s, -1)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		for _, re := range boilerplateLines {
			if re.MatchString(trimmed) {
				lines[i] = ""
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// dropBlankLines empties whitespace-only lines and keeps at most one blank
// line between paragraphs.
func dropBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
