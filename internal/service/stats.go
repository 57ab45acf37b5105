package service

import (
	"strings"
	"unicode/utf8"

	"ragchat/internal/domain"
)

// ComputeStats counts characters (runes) and whitespace-separated words of the
// extracted text. AvgChunkSize is characters divided by chunks, truncated.
func ComputeStats(text string, chunks int) domain.Stats {
	st := domain.Stats{
		Characters: utf8.RuneCountInString(text),
		Words:      len(strings.Fields(text)),
		Chunks:     chunks,
	}
	if chunks > 0 {
		st.AvgChunkSize = st.Characters / chunks
	}
	return st
}
