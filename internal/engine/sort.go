package engine

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

// Direction is a sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection maps user input to a direction, defaulting to ascending.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return Descending
	default:
		return Ascending
	}
}

// SortSpec selects the sort field and order. An empty Key keeps the
// filtered order.
type SortSpec struct {
	Key       string    `json:"key,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// Toggle returns the spec after a click on the column key: the same key
// flips ascending to descending, anything else starts ascending.
func (s SortSpec) Toggle(key string) SortSpec {
	if s.Key == key && s.Direction != Descending {
		return SortSpec{Key: key, Direction: Descending}
	}
	return SortSpec{Key: key, Direction: Ascending}
}

var sortLocale = language.AmericanEnglish

// SortView returns a new view ordered by spec. The input view is not
// modified. Numbers compare numerically when both sides are numeric;
// everything else compares as en-US collated text with absent values as "".
func SortView(v View, spec SortSpec) View {
	if spec.Key == "" {
		return v
	}

	idx := v.indices()
	store := v.store
	col := collate.New(sortLocale)
	desc := spec.Direction == Descending

	sort.SliceStable(idx, func(i, j int) bool {
		a := store.Record(idx[i]).Get(spec.Key)
		b := store.Record(idx[j]).Get(spec.Key)
		if desc {
			a, b = b, a
		}
		return compareValues(col, a, b) < 0
	})

	return newView(store, idx)
}

func compareValues(col *collate.Collator, a, b models.Value) int {
	if a.IsNumber() && b.IsNumber() {
		switch {
		case a.Num() < b.Num():
			return -1
		case a.Num() > b.Num():
			return 1
		default:
			return 0
		}
	}
	return col.CompareString(a.SortText(), b.SortText())
}
