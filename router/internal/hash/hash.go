// Package hash provides the stable token hashing used by the tokenizer.
// The mapping must be identical across processes and restarts, so it is a
// pure function of the input bytes with no per-process seed.
package hash

import (
	"github.com/cespare/xxhash/v2"
)

// Token maps a text chunk to a token ID in [0, vocabSize).
// xxhash is seedless and stable, so the same chunk always yields the same ID.
func Token(chunk string, vocabSize int) int {
	return int(xxhash.Sum64String(chunk) % uint64(vocabSize))
}
