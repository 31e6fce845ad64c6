// Package corpus defines the domain entities of the play corpus.
package corpus

import (
	"fmt"
	"strings"
)

// Category classifies a play.
type Category string

const (
	CategoryComedy  Category = "comedy"
	CategoryTragedy Category = "tragedy"
	CategoryHistory Category = "history"
)

// ParseCategory validates a category string.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryComedy:
		return CategoryComedy, nil
	case CategoryTragedy:
		return CategoryTragedy, nil
	case CategoryHistory:
		return CategoryHistory, nil
	default:
		return "", fmt.Errorf("unknown play category %q", s)
	}
}

// PlayRef identifies one ingested play together with its category.
type PlayRef struct {
	Title    string   `json:"title"`
	Category Category `json:"category"`
}

// PlayInfo is a corpus manifest entry: one play to ingest.
type PlayInfo struct {
	Title    string   `json:"title"`
	Category Category `json:"category"`
	File     string   `json:"file"`
}

// Play is a fully parsed play.
type Play struct {
	Title    string
	Category Category
	Acts     []Act
}

// Act groups the scenes under one ACT heading. Ordinal is 1-based and
// strictly increasing within a play.
type Act struct {
	Label   string // heading as printed, e.g. "ACT I"
	Ordinal int
	Scenes  []Scene
}

// Scene is the parser's unit of output: contiguous text plus the
// speaker names encountered in it. Ordinal is 1-based within the act.
type Scene struct {
	Title      string // heading as printed, e.g. "SCENE II. A room of state."
	Ordinal    int
	Text       string
	Characters []string
}

// Slug normalizes a play title into the identifier segment used in
// chunk ids: lowercase, non-alphanumeric runs collapsed to hyphens.
func Slug(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
