package game

import (
	"math/rand/v2"
	"slices"
)

// letterWeights follows Spanish letter frequency. Ñ is never drawn.
var letterWeights = []struct {
	letter string
	weight int
}{
	{"A", 10}, {"B", 6}, {"C", 9}, {"D", 6}, {"E", 10}, {"F", 6}, {"G", 6},
	{"H", 5}, {"I", 5}, {"J", 3}, {"K", 2}, {"L", 8}, {"M", 9}, {"N", 6},
	{"O", 10}, {"P", 9}, {"Q", 2}, {"R", 8}, {"S", 9}, {"T", 9}, {"U", 5},
	{"V", 5}, {"W", 1}, {"X", 1}, {"Y", 2}, {"Z", 2},
}

type LetterSelector struct {
	rng *rand.Rand
}

// NewLetterSelector uses rng for shuffling and drawing. A nil rng falls back
// to a randomly seeded source.
func NewLetterSelector(rng *rand.Rand) *LetterSelector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &LetterSelector{rng: rng}
}

// NewPool returns every letter repeated by its weight, shuffled.
func (s *LetterSelector) NewPool() []string {
	pool := make([]string, 0, 160)
	for _, lw := range letterWeights {
		for range lw.weight {
			pool = append(pool, lw.letter)
		}
	}
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool
}

// Select draws a letter not in used and returns the pool without any copy of
// it. An exhausted pool is rebuilt once; ok is false when every letter has
// already been used.
func (s *LetterSelector) Select(pool, used []string) (letter string, next []string, ok bool) {
	available := withoutUsed(pool, used)
	if len(available) == 0 {
		available = withoutUsed(s.NewPool(), used)
		if len(available) == 0 {
			return "", nil, false
		}
	}

	letter = available[s.rng.IntN(len(available))]
	next = slices.DeleteFunc(available, func(l string) bool {
		return l == letter
	})
	return letter, next, true
}

func withoutUsed(pool, used []string) []string {
	out := make([]string, 0, len(pool))
	for _, l := range pool {
		if !slices.Contains(used, l) {
			out = append(out, l)
		}
	}
	return out
}
