package chunker

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// LangchainSplitter delegates to the langchaingo recursive character splitter.
type LangchainSplitter struct {
	splitter textsplitter.RecursiveCharacter
}

func NewLangchainSplitter(chunkSize, chunkOverlap int, separators []string) *LangchainSplitter {
	opts := []textsplitter.Option{
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	}
	if len(separators) > 0 {
		opts = append(opts, textsplitter.WithSeparators(separators))
	}
	return &LangchainSplitter{splitter: textsplitter.NewRecursiveCharacter(opts...)}
}

func (s *LangchainSplitter) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return s.splitter.SplitText(text)
}
