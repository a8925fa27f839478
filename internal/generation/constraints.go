package generation

import (
	"fmt"
	"math/rand"
)

// constraintVocabulary is the fixed pool of concrete imagery tokens used to
// force variety between AI-generated tasks. Each requested slot gets one
// token drawn without replacement; a task description must contain its
// token, which keeps otherwise-similar prompts from collapsing into
// near-duplicates.
var constraintVocabulary = []string{
	"paper kite", "lunar eclipse", "moss", "echo", "glass", "rust", "old umbrella", "tide", "fog lamp", "signature",
	"wind chime", "old stamp", "station", "manhole cover", "fingerprint", "crack", "faint glow", "lingering warmth", "pendulum", "rain streak",
	"frost flower", "stage curtain", "hidden door", "key", "envelope", "folded page", "matchstick", "sea salt", "candle wick", "grit",
	"pier", "reflection", "wind direction", "cotton thread", "paper scraps", "ink stain", "blank margin", "old photo", "cloister", "wax seal",
	"wood shavings", "herbal scent", "eaves rain", "paper lantern", "snow grain", "copper bell", "tide sound", "lichen", "ferry crossing", "notebook",
	"silhouette", "spray", "night sailing", "stethoscope", "hinge", "clockwork", "offcut", "pine needles", "loose page", "steam",
}

// pickConstraintTokens draws count unique tokens from the vocabulary by
// shuffling a copy and taking a prefix. If count exceeds the vocabulary,
// the remainder is filled with random hex strings so every slot still gets
// a unique token.
func pickConstraintTokens(rng *rand.Rand, count int) []string {
	if count < 0 {
		count = 0
	}

	pool := make([]string, len(constraintVocabulary))
	copy(pool, constraintVocabulary)
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if count <= len(pool) {
		return pool[:count]
	}

	selected := pool
	for len(selected) < count {
		selected = append(selected, fmt.Sprintf("%04x", rng.Intn(1<<16)))
	}
	return selected
}
