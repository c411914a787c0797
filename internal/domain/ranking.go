package domain

import (
	"slices"
	"time"
)

// Rank is the ordering view of a sortable entity.
type Rank struct {
	ID        string
	Position  int
	CreatedAt time.Time
}

// Ranked is implemented by every entity that can be re-sequenced for display.
// WithPosition must return an updated copy and leave CreatedAt untouched.
type Ranked[T any] interface {
	Rank() Rank
	WithPosition(position int) T
}

// SortInstruction requests an absolute position for one entity.
type SortInstruction struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

// CompareRank orders by position ascending, then by creation time descending.
func CompareRank(a, b Rank) int {
	if a.Position != b.Position {
		if a.Position < b.Position {
			return -1
		}
		return 1
	}
	return b.CreatedAt.Compare(a.CreatedAt)
}

// SortRanked sorts entities in place by the total order. Entities that tie on
// both keys keep their relative order.
func SortRanked[T Ranked[T]](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		return CompareRank(a.Rank(), b.Rank())
	})
}

// Reorder applies a partial batch of sort instructions to the full current
// collection and returns it in its new total order.
//
// An empty batch yields an empty slice: nothing must be persisted. Entities
// not mentioned keep their position, instructions for unknown ids are
// ignored, and colliding positions are left as they are.
func Reorder[T Ranked[T]](current []T, instructions []SortInstruction) []T {
	if len(instructions) == 0 {
		return []T{}
	}

	requested := make(map[string]int, len(instructions))
	for _, in := range instructions {
		requested[in.ID] = in.Index
	}

	out := make([]T, 0, len(current))
	for _, item := range current {
		if idx, ok := requested[item.Rank().ID]; ok {
			out = append(out, item.WithPosition(idx))
			continue
		}
		out = append(out, item)
	}

	SortRanked(out)
	return out
}

// Moved returns the entities of next whose position differs from before.
func Moved[T Ranked[T]](before, next []T) []T {
	positions := make(map[string]int, len(before))
	for _, item := range before {
		r := item.Rank()
		positions[r.ID] = r.Position
	}

	var out []T
	for _, item := range next {
		r := item.Rank()
		if pos, ok := positions[r.ID]; !ok || pos != r.Position {
			out = append(out, item)
		}
	}
	return out
}
