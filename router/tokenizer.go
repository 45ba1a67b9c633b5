package router

import (
	"strings"

	"github.com/mockllm/kvrouter/router/internal/hash"
)

// tokenizerChunkRunes is the maximum chunk length a single word contributes
// as one token. Longer words split into fixed-size chunks so that token
// counts grow with text length the way a real subword tokenizer's do.
const tokenizerChunkRunes = 4

// Tokenizer maps text to token-ID sequences deterministically. It carries no
// linguistic meaning: each whitespace-separated word is cut into fixed-size
// rune chunks and every chunk is hashed into a bounded vocabulary. The same
// text always produces the same sequence, in this process and any other.
type Tokenizer struct {
	vocabSize int
}

// NewTokenizer creates a Tokenizer with the given vocabulary bound.
// Panics if vocabSize is not positive; Config.Validate catches this earlier
// on every external construction path.
func NewTokenizer(vocabSize int) *Tokenizer {
	if vocabSize <= 0 {
		panic("NewTokenizer: vocabSize must be > 0")
	}
	return &Tokenizer{vocabSize: vocabSize}
}

// Tokenize converts text into a token sequence. Empty or all-whitespace text
// yields an empty sequence. There are no error conditions.
func (t *Tokenizer) Tokenize(text string) []int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []int{}
	}
	tokens := make([]int, 0, len(words))
	for _, word := range words {
		runes := []rune(word)
		for start := 0; start < len(runes); start += tokenizerChunkRunes {
			end := start + tokenizerChunkRunes
			if end > len(runes) {
				end = len(runes)
			}
			tokens = append(tokens, hash.Token(string(runes[start:end]), t.vocabSize))
		}
	}
	return tokens
}

// VocabSize returns the vocabulary bound all token IDs fall under.
func (t *Tokenizer) VocabSize() int { return t.vocabSize }
