package analytics

import (
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/dataset"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

// View is a read-only subset of a dataset, held as indices into the
// dataset's records. Narrowing a view never copies or mutates records.
type View struct {
	records []domain.StartupRecord
	indices []int // nil selects every record
}

// All returns a view over every record of ds.
func All(ds *dataset.Dataset) View {
	if ds == nil {
		return View{}
	}
	return View{records: ds.Records}
}

// Apply returns the records of ds that match f.
func Apply(ds *dataset.Dataset, f Filter) View {
	return All(ds).Filter(f)
}

// Len is the number of records in the view.
func (v View) Len() int {
	if v.indices == nil {
		return len(v.records)
	}
	return len(v.indices)
}

// At returns the i-th record of the view. The record is shared with the
// dataset and must not be modified.
func (v View) At(i int) *domain.StartupRecord {
	if v.indices == nil {
		return &v.records[i]
	}
	return &v.records[v.indices[i]]
}

// Records copies the view's records out in dataset order.
func (v View) Records() []domain.StartupRecord {
	out := make([]domain.StartupRecord, v.Len())
	for i := range out {
		out[i] = *v.At(i)
	}
	return out
}

// Filter narrows the view to records matching f.
func (v View) Filter(f Filter) View {
	if f.IsEmpty() {
		return v
	}
	m := newMatcher(f)
	n := v.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if m.match(v.At(i)) {
			indices = append(indices, v.base(i))
		}
	}
	return View{records: v.records, indices: indices}
}

// base maps a view position to its index in the dataset.
func (v View) base(i int) int {
	if v.indices == nil {
		return i
	}
	return v.indices[i]
}
