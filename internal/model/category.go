package model

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// UncategorizedKey is the bucket key for tasks without a category.
const UncategorizedKey = "uncategorized"

// DefaultCategoryColor is used when a colour cannot be chosen otherwise.
const DefaultCategoryColor = "#55aaff"

// Palette is the set of colours handed out to new categories.
var Palette = []string{
	"#ff5555", "#ff8855", "#ffbb55", "#ffee55", "#bbff55",
	"#88ff55", "#55ff55", "#55ffaa", "#55ffff", "#55aaff",
	"#5555ff", "#8855ff", "#bb55ff", "#ff55ff", "#ff55aa",
}

// Category groups and colour-codes tasks. Categories form a tree through
// ParentID; a nil ParentID marks a root.
type Category struct {
	ID        int64  `json:"id" validate:"gt=0"`
	Name      string `json:"name" validate:"required"`
	Color     string `json:"color" validate:"required,hexcolor"`
	ParentID  *int64 `json:"parent_id"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Ref returns the snapshot copied onto tasks.
func (c Category) Ref() *CategoryRef {
	return &CategoryRef{ID: c.ID, Name: c.Name, Color: c.Color}
}

// IsRoot reports whether the category has no parent.
func (c Category) IsRoot() bool {
	return c.ParentID == nil
}

// Key returns the bucket key of the category.
func (c Category) Key() string {
	return CategoryKey(c.ID)
}

// Created returns created_at, falling back to the timestamp encoded in the id.
func (c Category) Created() string {
	if c.CreatedAt != "" {
		return c.CreatedAt
	}
	return FormatTime(time.UnixMilli(c.ID))
}

// CategoryKey formats a category id as a bucket key.
func CategoryKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseCategoryKey is the inverse of CategoryKey. It reports false for the
// uncategorized key or malformed input.
func ParseCategoryKey(key string) (int64, bool) {
	if key == UncategorizedKey {
		return 0, false
	}
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// RandomColor picks a colour from Palette.
func RandomColor() string {
	return Palette[rand.IntN(len(Palette))]
}

// ContrastColor returns black or white, whichever reads better on bg.
// Invalid colours yield black.
func ContrastColor(bg string) string {
	r, g, b, ok := parseHex(bg)
	if !ok {
		return "#000000"
	}
	luminance := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
	if luminance > 0.5 {
		return "#000000"
	}
	return "#ffffff"
}

// ValidColor reports whether s is a #rgb or #rrggbb hex colour.
func ValidColor(s string) bool {
	_, _, _, ok := parseHex(s)
	return ok
}

func parseHex(s string) (r, g, b uint8, ok bool) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}
