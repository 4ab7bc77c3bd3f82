package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field limits, in characters.
const (
	MaxCodeLength     = 20000
	MaxCaptionLength  = 200
	MaxLanguageLength = 30
	MaxAuthorLength   = 40
)

// DefaultAuthor is stored when a post has no author.
const DefaultAuthor = "anon"

// Query limits.
const (
	DefaultLimit = 100
	MinLimit     = 1
	MaxLimit     = 500
)

// Post is a validated-on-append message payload.
type Post struct {
	Author   string
	Caption  string
	Language string
	Code     string
	// OriginHash is the writer fingerprint; set by the Board.
	OriginHash string
}

// Query selects messages of a room.
type Query struct {
	// Since excludes messages created at or before this unix millisecond.
	Since int64
	// Limit caps the result size; nil means DefaultLimit.
	Limit *int
}

// EffectiveLimit returns the clamped limit: nil → DefaultLimit, <1 → 1, >500 → 500.
func (q Query) EffectiveLimit() int {
	if q.Limit == nil {
		return DefaultLimit
	}
	return min(max(*q.Limit, MinLimit), MaxLimit)
}

// normalize validates the required payload and truncates optional fields.
func (p Post) normalize() (Post, error) {
	if strings.TrimSpace(p.Code) == "" {
		return Post{}, validationError(ErrCodeCodeRequired, "code is required")
	}
	if utf8.RuneCountInString(p.Code) > MaxCodeLength {
		return Post{}, validationError(ErrCodeCodeTooLarge, fmt.Sprintf("code too large (max %d chars)", MaxCodeLength))
	}

	out := Post{
		Author:     truncate(strings.TrimSpace(p.Author), MaxAuthorLength),
		Caption:    truncate(strings.TrimSpace(p.Caption), MaxCaptionLength),
		Language:   truncate(strings.TrimSpace(p.Language), MaxLanguageLength),
		Code:       p.Code,
		OriginHash: p.OriginHash,
	}
	if out.Author == "" {
		out.Author = DefaultAuthor
	}
	return out, nil
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
