package cluster

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embedder turns a file name into a vector. Similar names should land
// close together.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// NgramEmbedder hashes character trigrams and whole words of a file name
// into a fixed number of buckets. It needs no model and is deterministic.
type NgramEmbedder struct {
	Dim int
}

func (e NgramEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	dim := e.Dim
	if dim <= 0 {
		dim = 256
	}
	vec := make([]float64, dim)

	words := Tokenize(text)
	for _, w := range words {
		vec[bucket(w, dim)] += 2
		padded := " " + w + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			vec[bucket(string(runes[i:i+3]), dim)]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// Tokenize splits a file name into lower-case words, breaking on anything
// that is not a letter or digit and on letter/digit boundaries.
func Tokenize(name string) []string {
	var words []string
	var cur []rune
	var lastDigit bool
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			isDigit := unicode.IsDigit(r)
			if len(cur) > 0 && isDigit != lastDigit {
				flush()
			}
			cur = append(cur, r)
			lastDigit = isDigit
		default:
			flush()
		}
	}
	flush()
	return words
}

func bucket(s string, dim int) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % uint32(dim))
}
