package engine

import "github.com/mamadbah2/stationdash/internal/domain/models"

// View is an ordered selection of records from a Store. It holds indices
// into the store and never copies or mutates records.
type View struct {
	store *Store
	idx   []int
	full  bool
}

func newView(store *Store, idx []int) View {
	return View{store: store, idx: idx}
}

// Len returns the number of records in the view.
func (v View) Len() int {
	if v.full {
		return v.store.Len()
	}
	return len(v.idx)
}

// Index maps the i-th view position to its store position.
func (v View) Index(i int) int {
	if v.full {
		return i
	}
	return v.idx[i]
}

// Record returns the i-th record of the view.
func (v View) Record(i int) models.Record { return v.store.Record(v.Index(i)) }

// Date returns the memoized date parts of the i-th record.
func (v View) Date(i int) DateParts { return v.store.Date(v.Index(i)) }

// Store returns the backing store.
func (v View) Store() *Store { return v.store }

// Records copies the view's records into a new slice.
func (v View) Records() []models.Record {
	out := make([]models.Record, v.Len())
	for i := range out {
		out[i] = v.Record(i)
	}
	return out
}

// indices returns a fresh copy of the view's store positions.
func (v View) indices() []int {
	out := make([]int, v.Len())
	for i := range out {
		out[i] = v.Index(i)
	}
	return out
}

// ComputeView runs the filter pipeline then the sort stage. It is pure:
// the store is left untouched and the result depends only on its inputs.
func ComputeView(store *Store, filter Filter, spec SortSpec) View {
	return SortView(ApplyFilters(store, filter), spec)
}
