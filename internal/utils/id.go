package utils

import (
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Identifier lengths used for persisted records.
const (
	RoomIDSize    = 10
	MessageIDSize = 12
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// NewID returns a random base62 nanoid of the requested length.
// It is safe for concurrent use.
func NewID(size int) string {
	if size <= 0 {
		size = MessageIDSize
	}

	id, err := gonanoid.Generate(idAlphabet, size)
	if err != nil {
		// Fallback to timestamp if the random source is unavailable.
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return id
}
