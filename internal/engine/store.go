package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

// ErrNoDate is returned by ParseDate when a record carries no date value.
var ErrNoDate = errors.New("record has no date")

var (
	zonedLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999Z0700"}
	localLayouts = []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04", "2006-01-02 15:04:05.999999999"}
)

const dateOnlyLayout = "2006-01-02"

// DateParts holds the local calendar components of a record's date.
// OK is false when the date is absent or could not be parsed.
type DateParts struct {
	Year  int
	Month int // 1-12
	Day   int
	OK    bool
}

// Store is an immutable, ordered record set with per-record date parts
// computed once at construction. A refetch replaces the whole Store.
type Store struct {
	records  []models.Record
	dates    []DateParts
	loc      *time.Location
	unparsed int
}

// NewStore takes ownership of records and precomputes their local date parts
// in loc (time.Local when nil).
func NewStore(records []models.Record, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	s := &Store{
		records: records,
		dates:   make([]DateParts, len(records)),
		loc:     loc,
	}
	for i, rec := range records {
		t, err := ParseDate(rec.Get(models.FieldDate), loc)
		if err != nil {
			s.unparsed++
			continue
		}
		s.dates[i] = DateParts{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), OK: true}
	}
	return s
}

// Len returns the number of records.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Record returns the i-th record.
func (s *Store) Record(i int) models.Record { return s.records[i] }

// Date returns the memoized date parts of the i-th record.
func (s *Store) Date(i int) DateParts { return s.dates[i] }

// Location returns the zone used to extract date parts.
func (s *Store) Location() *time.Location {
	if s == nil {
		return time.Local
	}
	return s.loc
}

// Unparsed returns how many records have no usable date.
func (s *Store) Unparsed() int {
	if s == nil {
		return 0
	}
	return s.unparsed
}

// All returns a view over every record in store order.
func (s *Store) All() View {
	return View{store: s, full: true}
}

// Branches returns the distinct non-empty branch names present, sorted.
func (s *Store) Branches() []string {
	seen := make(map[string]struct{})
	var out []string
	for i := 0; i < s.Len(); i++ {
		b := s.records[i].Branch()
		if b == "" {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// ParseDate interprets a date field in loc. Timestamps with a zone are
// converted, timestamps without one are read as local wall time, and bare
// dates are read as UTC midnight before conversion.
func ParseDate(v models.Value, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	switch v.Kind() {
	case models.KindDate:
		return v.Time().In(loc), nil
	case models.KindNumber:
		return time.UnixMilli(int64(v.Num())).In(loc), nil
	case models.KindText:
		return parseDateText(v.Str(), loc)
	default:
		return time.Time{}, ErrNoDate
	}
}

func parseDateText(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrNoDate
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("parse date %q: unsupported format", s)
}
