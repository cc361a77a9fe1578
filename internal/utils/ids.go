package utils

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const seedPhraseAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func NewUUID() string {
	return uuid.New().String()
}

// NewSeedPhrase generates the filter phrase embedded in test emails so
// provider-side receipt can be correlated back to the requesting test
func NewSeedPhrase() string {
	id, err := gonanoid.Generate(seedPhraseAlphabet, 16)
	if err != nil {
		// nanoid only fails on a broken random source; fall back to uuid
		return uuid.New().String()
	}
	return "ws-" + id
}
