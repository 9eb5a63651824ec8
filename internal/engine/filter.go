package engine

import (
	"strconv"
	"strings"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

// Filter is the dashboard filter state. Year, Month and Day are the raw
// input strings; a component only applies once it is well formed (four
// digits for the year, one or two digits for month and day).
type Filter struct {
	Branch string `json:"branch,omitempty" form:"branch"`
	Year   string `json:"year,omitempty" form:"year"`
	Month  string `json:"month,omitempty" form:"month"`
	Day    string `json:"day,omitempty" form:"day"`
	Search string `json:"search,omitempty" form:"search"`
}

// BranchValue returns the branch restriction, treating the "All Branches"
// sentinel as no restriction.
func (f Filter) BranchValue() string {
	if f.Branch == models.AllBranches {
		return ""
	}
	return f.Branch
}

// YearValue returns the year filter when it is exactly four digits.
func (f Filter) YearValue() (int, bool) { return digitsValue(f.Year, 4, 4) }

// MonthValue returns the 1-based month filter when it is one or two digits.
func (f Filter) MonthValue() (int, bool) { return digitsValue(f.Month, 1, 2) }

// DayValue returns the day filter when it is one or two digits.
func (f Filter) DayValue() (int, bool) { return digitsValue(f.Day, 1, 2) }

// HasDateFilter reports whether any date component is active.
func (f Filter) HasDateFilter() bool {
	_, y := f.YearValue()
	_, m := f.MonthValue()
	_, d := f.DayValue()
	return y || m || d
}

// IsEmpty reports whether no stage of the pipeline would narrow the input.
func (f Filter) IsEmpty() bool {
	return f.BranchValue() == "" && !f.HasDateFilter() && f.Search == ""
}

// Query returns the server-side narrowing matching the filter's date fields.
func (f Filter) Query() models.Query {
	return models.Query{Year: f.Year, Month: f.Month, Day: f.Day}
}

// ApplyFilters narrows the store with the branch, date and search stages, in
// that order. Original relative order is preserved. With no active stage the
// full store view is returned as is.
func ApplyFilters(store *Store, f Filter) View {
	all := store.All()
	if f.IsEmpty() {
		return all
	}

	idx := all.indices()

	if branch := f.BranchValue(); branch != "" {
		idx = keep(idx, func(i int) bool {
			return store.Record(i).Branch() == branch
		})
	}

	if f.HasDateFilter() {
		year, hasYear := f.YearValue()
		month, hasMonth := f.MonthValue()
		day, hasDay := f.DayValue()
		idx = keep(idx, func(i int) bool {
			parts := store.Date(i)
			if !parts.OK {
				return false
			}
			if hasYear && parts.Year != year {
				return false
			}
			if hasMonth && parts.Month != month {
				return false
			}
			if hasDay && parts.Day != day {
				return false
			}
			return true
		})
	}

	if f.Search != "" {
		term := strings.ToLower(f.Search)
		idx = keep(idx, func(i int) bool {
			return matchesSearch(store.Record(i), term)
		})
	}

	return newView(store, idx)
}

// matchesSearch reports whether any text value of rec contains term.
// Numbers and native dates are not searched.
func matchesSearch(rec models.Record, term string) bool {
	for _, v := range rec {
		if v.IsText() && v.Str() != "" && strings.Contains(strings.ToLower(v.Str()), term) {
			return true
		}
	}
	return false
}

// keep filters idx in place.
func keep(idx []int, pred func(int) bool) []int {
	out := idx[:0]
	for _, i := range idx {
		if pred(i) {
			out = append(out, i)
		}
	}
	return out
}

func digitsValue(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
