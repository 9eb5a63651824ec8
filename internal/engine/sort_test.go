package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func branches(v View) []string {
	out := make([]string, v.Len())
	for i := range out {
		out[i] = v.Record(i).Branch()
	}
	return out
}

func TestSortViewEmptyKeyKeepsOrder(t *testing.T) {
	store := newTestStore(t, exampleStoreJSON)
	in := ApplyFilters(store, Filter{Branch: "Tema"})

	out := SortView(in, SortSpec{Direction: Descending})

	require.Equal(t, netSales(in), netSales(out))
}

func TestSortViewNumeric(t *testing.T) {
	store := newTestStore(t, `[
		{"branch": "A", "net_sales": 9},
		{"branch": "B", "net_sales": 10},
		{"branch": "C", "net_sales": -2.5},
		{"branch": "D", "net_sales": 100}
	]`)

	asc := SortView(store.All(), SortSpec{Key: "net_sales", Direction: Ascending})
	desc := SortView(store.All(), SortSpec{Key: "net_sales", Direction: Descending})

	assert.Equal(t, []float64{-2.5, 9, 10, 100}, netSales(asc))
	assert.Equal(t, []float64{100, 10, 9, -2.5}, netSales(desc))
}

func TestSortViewDescendingReversesAscending(t *testing.T) {
	store := newTestStore(t, filterStoreJSON)

	asc := SortView(store.All(), SortSpec{Key: "net_sales", Direction: Ascending})
	desc := SortView(store.All(), SortSpec{Key: "net_sales", Direction: Descending})

	got := netSales(desc)
	want := netSales(asc)
	for i, j := 0, len(want)-1; i < j; i, j = i+1, j-1 {
		want[i], want[j] = want[j], want[i]
	}
	require.Equal(t, want, got)
}

func TestSortViewCollatesText(t *testing.T) {
	store := newTestStore(t, `[
		{"branch": "Zed"},
		{"branch": "Émile"},
		{"branch": "banana"},
		{"branch": "Apple"}
	]`)

	out := SortView(store.All(), SortSpec{Key: "branch", Direction: Ascending})

	require.Equal(t, []string{"Apple", "banana", "Émile", "Zed"}, branches(out))
}

func TestSortViewMissingSortsAsEmptyText(t *testing.T) {
	store := newTestStore(t, `[
		{"branch": "A", "comment": "zulu"},
		{"branch": "B"},
		{"branch": "C", "comment": "alpha"}
	]`)

	out := SortView(store.All(), SortSpec{Key: "comment", Direction: Ascending})

	require.Equal(t, []string{"B", "C", "A"}, branches(out))
}

func TestSortViewIsStable(t *testing.T) {
	store := newTestStore(t, `[
		{"branch": "A", "net_sales": 1},
		{"branch": "B", "net_sales": 2},
		{"branch": "C", "net_sales": 1},
		{"branch": "D", "net_sales": 2}
	]`)

	asc := SortView(store.All(), SortSpec{Key: "net_sales", Direction: Ascending})
	desc := SortView(store.All(), SortSpec{Key: "net_sales", Direction: Descending})

	assert.Equal(t, []string{"A", "C", "B", "D"}, branches(asc))
	assert.Equal(t, []string{"B", "D", "A", "C"}, branches(desc))
}

func TestSortViewLeavesInputUntouched(t *testing.T) {
	store := newTestStore(t, exampleStoreJSON)
	in := store.All()

	_ = SortView(in, SortSpec{Key: "net_sales", Direction: Descending})

	require.Equal(t, []float64{100, 50, 200}, netSales(in))
}

func TestSortSpecToggle(t *testing.T) {
	var spec SortSpec

	spec = spec.Toggle("net_sales")
	require.Equal(t, SortSpec{Key: "net_sales", Direction: Ascending}, spec)

	spec = spec.Toggle("net_sales")
	require.Equal(t, SortSpec{Key: "net_sales", Direction: Descending}, spec)

	spec = spec.Toggle("net_sales")
	require.Equal(t, SortSpec{Key: "net_sales", Direction: Ascending}, spec)

	spec = spec.Toggle("expenditure")
	require.Equal(t, SortSpec{Key: "expenditure", Direction: Ascending}, spec)
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Descending, ParseDirection("desc"))
	assert.Equal(t, Descending, ParseDirection(" DESC "))
	assert.Equal(t, Ascending, ParseDirection("asc"))
	assert.Equal(t, Ascending, ParseDirection(""))
	assert.Equal(t, Ascending, ParseDirection("sideways"))
}
