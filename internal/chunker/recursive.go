package chunker

import (
	"strings"
	"unicode/utf8"
)

// RecursiveSplitter splits text on the coarsest separator that keeps pieces under
// chunkSize, then merges neighbouring pieces back up to chunkSize, carrying up to
// chunkOverlap characters of the previous chunk into the next one.
// Lengths are counted in runes.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewRecursiveSplitter creates a splitter. Empty separators default to
// paragraph break, line break, space, character.
func NewRecursiveSplitter(chunkSize, chunkOverlap int, separators []string) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	if len(separators) == 0 {
		separators = []string{"\n\n", "\n", " ", ""}
	}
	return &RecursiveSplitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap, separators: separators}
}

// Split returns the ordered chunks of text. Empty input yields no chunks.
func (s *RecursiveSplitter) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return s.split(text, s.separators), nil
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var next []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	var (
		chunks []string
		good   []string
	)
	for _, piece := range splitKeepSeparator(text, separator) {
		if runeLen(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			chunks = append(chunks, s.merge(good)...)
			good = nil
		}
		if len(next) == 0 {
			// unbreakable with the remaining separators; kept oversized
			if piece = strings.TrimSpace(piece); piece != "" {
				chunks = append(chunks, piece)
			}
		} else {
			chunks = append(chunks, s.split(piece, next)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, s.merge(good)...)
	}
	return chunks
}

// merge joins pieces into chunks no longer than chunkSize. Pieces already carry
// their leading separator, so they are concatenated directly.
func (s *RecursiveSplitter) merge(pieces []string) []string {
	var (
		out     []string
		current []string
		total   int
	)
	for _, p := range pieces {
		n := runeLen(p)
		if total+n > s.chunkSize && len(current) > 0 {
			if doc := joinTrimmed(current); doc != "" {
				out = append(out, doc)
			}
			for total > s.chunkOverlap || (total+n > s.chunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if doc := joinTrimmed(current); doc != "" {
		out = append(out, doc)
	}
	return out
}

// splitKeepSeparator splits text on sep, attaching each separator to the piece
// that follows it. An empty sep splits into runes. Empty pieces are dropped.
func splitKeepSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	if parts[0] != "" {
		out = append(out, parts[0])
	}
	for _, p := range parts[1:] {
		out = append(out, sep+p)
	}
	return out
}

func joinTrimmed(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
