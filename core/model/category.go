package model

import (
	"fmt"
	"strings"
)

// Category classifies both emergencies and responders.
type Category uint8

const (
	CategoryOther Category = iota
	CategoryFire
	CategoryPolice
	CategoryMedical
)

// eligibleResponders is indexed by emergency category. Other has no responder
// and therefore always expires.
var eligibleResponders = [...][]Category{
	CategoryOther:   nil,
	CategoryFire:    {CategoryFire},
	CategoryPolice:  {CategoryPolice, CategoryMedical},
	CategoryMedical: {CategoryMedical, CategoryFire},
}

func (c Category) String() string {
	switch c {
	case CategoryFire:
		return "fire"
	case CategoryPolice:
		return "police"
	case CategoryMedical:
		return "medical"
	default:
		return "other"
	}
}

// ParseCategory converts a category name. An empty value is reported as
// ErrMalformedRecord, an unrecognized one as ErrUnknownCategory; in both cases
// CategoryOther is returned so callers can keep going.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fire":
		return CategoryFire, nil
	case "police":
		return CategoryPolice, nil
	case "medical":
		return CategoryMedical, nil
	case "other":
		return CategoryOther, nil
	case "":
		return CategoryOther, fmt.Errorf("%w: empty category", ErrMalformedRecord)
	default:
		return CategoryOther, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

// Responders returns the unit categories allowed to handle an emergency of
// category c.
func (c Category) Responders() []Category {
	if int(c) >= len(eligibleResponders) {
		return nil
	}
	return append([]Category(nil), eligibleResponders[c]...)
}

// Accepts reports whether a unit of category responder may handle an
// emergency of category c.
func (c Category) Accepts(responder Category) bool {
	if int(c) >= len(eligibleResponders) {
		return false
	}
	for _, r := range eligibleResponders[c] {
		if r == responder {
			return true
		}
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names are rejected.
func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
