package engine

import (
	"bytes"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

// CSVContentType is the declared type of CSV exports.
const CSVContentType = "text/csv;charset=utf-8"

// ExportCSV renders the view as comma-separated text: one header line then
// one line per record, joined by "\n" without a trailing newline. It reports
// false, producing nothing, when the view is empty.
//
// Headers are written as is. Numbers use their plain decimal form, text is
// always quoted with embedded quotes doubled, native dates render as
// YYYY-MM-DD and absent values as empty fields.
func ExportCSV(v View, columns []models.Column) ([]byte, bool) {
	if v.Len() == 0 {
		return nil, false
	}

	var buf bytes.Buffer
	for i, col := range columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(col.Header)
	}

	for r := 0; r < v.Len(); r++ {
		buf.WriteByte('\n')
		rec := v.Record(r)
		for i, col := range columns {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(FormatCSVValue(col.Value(rec)))
		}
	}

	return buf.Bytes(), true
}

// FormatCSVValue renders one field for CSV output.
func FormatCSVValue(v models.Value) string {
	switch v.Kind() {
	case models.KindNumber:
		return FormatNumber(v.Num())
	case models.KindText:
		return `"` + strings.ReplaceAll(v.Str(), `"`, `""`) + `"`
	case models.KindDate:
		return v.Time().UTC().Format(dateOnlyLayout)
	default:
		return ""
	}
}

// FormatNumber renders n in plain decimal notation without grouping.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	return decimal.NewFromFloat(n).String()
}

// ExportFilename builds "<prefix>_<year>[-MM[-DD]].<ext>" from the filter.
// The day is only included alongside a month.
func ExportFilename(prefix string, f Filter, ext string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('_')
	b.WriteString(f.Year)
	if f.Month != "" {
		b.WriteByte('-')
		b.WriteString(padLeft2(f.Month))
		if f.Day != "" {
			b.WriteByte('-')
			b.WriteString(padLeft2(f.Day))
		}
	}
	b.WriteByte('.')
	b.WriteString(ext)
	return b.String()
}

func padLeft2(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}
