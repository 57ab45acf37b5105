package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRecursiveCharacterFallback(t *testing.T) {
	text := strings.Repeat("abcdefghij", 250) // 2500 chars, no separators
	chunks, err := NewRecursiveSplitter(1000, 200, nil).Split(text)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1000, 1000, 900}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, n := range want {
		if got := utf8.RuneCountInString(chunks[i]); got != n {
			t.Errorf("chunk %d: length %d, want %d", i, got, n)
		}
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		if !strings.HasPrefix(chunks[i], prev[len(prev)-200:]) {
			t.Errorf("chunk %d does not start with the last 200 chars of chunk %d", i, i-1)
		}
	}
	if chunks[0]+chunks[1][200:]+chunks[2][200:] != text {
		t.Error("chunks do not reassemble into the original text")
	}
}

func wordText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	var sb strings.Builder
	for i, w := range words {
		if i > 0 {
			switch {
			case i%97 == 0:
				sb.WriteString("\n\n")
			case i%13 == 0:
				sb.WriteString("\n")
			default:
				sb.WriteString(" ")
			}
		}
		sb.WriteString(w)
	}
	return sb.String()
}

func TestRecursiveWordsRespectSizeAndOrder(t *testing.T) {
	text := wordText(2000)
	chunks, err := NewRecursiveSplitter(1000, 200, nil).Split(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	firstWord := func(s string) string { return strings.Fields(s)[0] }
	lastWord := func(s string) string { f := strings.Fields(s); return f[len(f)-1] }
	all := strings.Fields(text)
	pos := make(map[string]int, len(all))
	for i, w := range all {
		pos[w] = i
	}

	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 1000 {
			t.Errorf("chunk %d exceeds chunk size: %d", i, n)
		}
		if c != strings.TrimSpace(c) || c == "" {
			t.Errorf("chunk %d is not trimmed or empty", i)
		}
		// every chunk is a contiguous run of the source words
		words := strings.Fields(c)
		for j := 1; j < len(words); j++ {
			if pos[words[j]] != pos[words[j-1]]+1 {
				t.Fatalf("chunk %d is not contiguous at %q", i, words[j])
			}
		}
	}
	if firstWord(chunks[0]) != all[0] || lastWord(chunks[len(chunks)-1]) != all[len(all)-1] {
		t.Error("chunks do not cover the whole text")
	}
	for i := 1; i < len(chunks); i++ {
		start, prevEnd := pos[firstWord(chunks[i])], pos[lastWord(chunks[i-1])]
		if start > prevEnd+1 {
			t.Errorf("gap between chunk %d and %d", i-1, i)
		}
		if start <= prevEnd {
			overlap := strings.Join(all[start:prevEnd+1], " ")
			if utf8.RuneCountInString(overlap) > 200 {
				t.Errorf("overlap between chunk %d and %d is %d chars", i-1, i, len(overlap))
			}
		}
	}
}

func TestRecursiveEmptyAndShortInput(t *testing.T) {
	s := NewRecursiveSplitter(1000, 200, nil)
	for _, in := range []string{"", "   \n\n  "} {
		chunks, err := s.Split(in)
		if err != nil || len(chunks) != 0 {
			t.Errorf("Split(%q) = %v, %v; want no chunks", in, chunks, err)
		}
	}
	chunks, _ := s.Split("  short text\n")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("got %q", chunks)
	}
}

func TestRecursiveKeepsUnbreakableToken(t *testing.T) {
	long := strings.Repeat("x", 30)
	chunks, err := NewRecursiveSplitter(10, 2, []string{" "}).Split("ab " + long + " cd")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, c := range chunks {
		if c == long {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the oversized token to survive intact, got %q", chunks)
	}
}

func TestRecursiveCountsRunes(t *testing.T) {
	text := strings.Repeat("é", 25)
	chunks, _ := NewRecursiveSplitter(10, 0, nil).Split(text)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if n := utf8.RuneCountInString(chunks[0]); n != 10 {
		t.Errorf("first chunk has %d runes", n)
	}
}

func TestSentenceChunker(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	chunks, err := c.Split("One. Two! Three? Four")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"One. Two!", "Two! Three?", "Three? Four"}
	if strings.Join(chunks, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", chunks, want)
	}
	if chunks, _ := c.Split("  "); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %q", chunks)
	}
}

func TestLangchainSplitter(t *testing.T) {
	s := NewLangchainSplitter(1000, 200, nil)
	chunks, err := s.Split("A short paragraph.")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0] != "A short paragraph." {
		t.Errorf("got %q", chunks)
	}
	if chunks, _ := s.Split(""); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty text, got %q", chunks)
	}
}
