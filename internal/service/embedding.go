package service

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	pgvector "github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions matches the vector(64) recipe column
const EmbeddingDimensions = 64

// GenerateEmbedding returns a deterministic hashed bag-of-words embedding,
// L2 normalized so that distances between recipes are comparable.
func GenerateEmbedding(text string) pgvector.Vector {
	vec := make([]float32, EmbeddingDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum32()
		// top bit selects the sign
		if sum&(1<<31) != 0 {
			vec[sum%EmbeddingDimensions]--
		} else {
			vec[sum%EmbeddingDimensions]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return pgvector.NewVector(vec)
}

// recipeEmbeddingText is the text indexed for semantic search
func recipeEmbeddingText(name, description, cuisine string, ingredients []string) string {
	return strings.Join(append([]string{name, description, cuisine}, ingredients...), " ")
}
