package words

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/akolanti/MLServe/internal/config"
)

var (
	ErrInvalidWord  = errors.New("word must be a non-empty string of letters")
	ErrInvalidTopN  = errors.New("topn must be at least 1")
	ErrNoKnownWords = errors.New("none of the words are in the vocabulary")
)

// MostSimilarSignature is the input of a most_similar lookup
type MostSimilarSignature struct {
	Word string `json:"word"`
	TopN int    `json:"topn"`
}

func (s MostSimilarSignature) Validate() error {
	if !IsWord(s.Word) {
		return fmt.Errorf("%w: %q", ErrInvalidWord, s.Word)
	}
	if s.TopN < 1 {
		return ErrInvalidTopN
	}
	if s.TopN > config.MaxTopN {
		return fmt.Errorf("%w: topn may not exceed %d", ErrInvalidTopN, config.MaxTopN)
	}
	return nil
}

// IsWord reports whether w is non-empty and made of letters only
func IsWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// WordClusters holds, per known query word, its most similar words and their vectors
type WordClusters struct {
	Words      []string      `json:"words"`
	Clusters   [][]string    `json:"clusters"`
	Embeddings [][][]float32 `json:"-"`
	Missing    []string      `json:"missing,omitempty"`
}
