package models

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Direction selects which way a paginated query moves from its cursor
type Direction string

const (
	DirectionNext Direction = "next"
	DirectionPrev Direction = "prev"
)

// ParseDirection accepts "next", "prev" and "previous" in any case.
// An empty value means "next".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "next":
		return DirectionNext, nil
	case "prev", "previous":
		return DirectionPrev, nil
	default:
		return "", NewValidationError("direction", "direction must be one of: next, prev")
	}
}

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == DirectionNext || d == DirectionPrev
}

// Filter is the logical query descriptor accepted by filter pagination
type Filter struct {
	Search      string   `json:"search,omitempty" validate:"omitempty,max=256"`
	SearchField string   `json:"searchField,omitempty"`
	Status      []string `json:"status,omitempty" validate:"omitempty,max=20"`
	Role        []string `json:"role,omitempty" validate:"omitempty,max=20"`
	DateFrom    string   `json:"dateFrom,omitempty"`
	DateTo      string   `json:"dateTo,omitempty"`
	Fields      []string `json:"fields,omitempty" validate:"omitempty,max=50"`
	Reverse     bool     `json:"reverse,omitempty"`
}

// IsEmpty reports whether the filter restricts nothing
func (f Filter) IsEmpty() bool {
	return f.Search == "" && len(f.Status) == 0 && len(f.Role) == 0 &&
		f.DateFrom == "" && f.DateTo == ""
}

// PageRequest carries the pagination controls of a list call
type PageRequest struct {
	Limit         int       `json:"limit"`
	Direction     Direction `json:"direction"`
	CursorPointer string    `json:"cursorPointer,omitempty"`
}

// PageLimit is a page size read from JSON as a number or a numeric string
type PageLimit int

var errPageLimit = errors.New("limit must be a number")

func (l *PageLimit) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*l = PageLimit(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errPageLimit
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errPageLimit
	}
	*l = PageLimit(n)
	return nil
}

// FilterPageRequest is the body of a filter pagination call
type FilterPageRequest struct {
	Filter        Filter    `json:"filter"`
	Limit         PageLimit `json:"limit" validate:"required"`
	Direction     string    `json:"direction"`
	CursorPointer string    `json:"cursorPointer,omitempty"`
}

// Page is one page of decoded entities with its opaque cursors
type Page[T any] struct {
	Data              []T    `json:"data"`
	NextCursorPointer string `json:"nextCursorPointer"`
	PrevCursorPointer string `json:"prevCursorPointer"`
}
