package analytics

import (
	"sort"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/dataset"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

// Views holds the five grouped views of a filtered subset.
type Views struct {
	Accelerators []Group `json:"accelerators"`
	Sectors      []Group `json:"sectors"`
	TRL          []Group `json:"trl"`
	Stages       []Group `json:"stages"`
	States       []Group `json:"states"`
}

// FilterOptions are the values a user can pick from for each dimension.
type FilterOptions struct {
	Accelerators []string           `json:"accelerators"`
	States       []string           `json:"states"`
	Sectors      []string           `json:"sectors"`
	TRLBuckets   []domain.TRLBucket `json:"trl_buckets"`
}

// Dashboard is the complete view model for one filter selection.
type Dashboard struct {
	Filter  Filter        `json:"filter"`
	Summary Summary       `json:"summary"`
	Views   Views         `json:"views"`
	Charts  []ChartConfig `json:"charts"`
	Options FilterOptions `json:"options"`
	Dataset dataset.Meta  `json:"dataset"`
}

// Build validates f and computes the dashboard for ds.
func Build(ds *dataset.Dataset, f Filter) (*Dashboard, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	v := Apply(ds, f)
	views := ComputeViews(v)
	d := &Dashboard{
		Filter:  f,
		Summary: Summarize(v),
		Views:   views,
		Charts:  Charts(views),
		Options: Options(ds),
	}
	if ds != nil {
		d.Dataset = ds.Meta
	}
	return d, nil
}

// ComputeViews computes all five grouped views of v.
func ComputeViews(v View) Views {
	return Views{
		Accelerators: ByAccelerator(v),
		Sectors:      BySector(v),
		TRL:          ByTRL(v),
		Stages:       ByStage(v),
		States:       ByState(v),
	}
}

// Startups lists the records of one accelerator in v, sorted by startup
// name. Records with equal names keep dataset order.
func Startups(v View, accelerator string) []domain.StartupRow {
	rows := make([]domain.StartupRow, 0)
	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		if r.Accelerator != accelerator {
			continue
		}
		rows = append(rows, domain.StartupRow{
			Startup: r.Startup,
			Sector:  r.Sector,
			Stage:   r.Stage,
			TRLNum:  r.TRLNum,
			State:   r.State,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Startup < rows[j].Startup })
	return rows
}

// Options collects the sorted distinct values of each filterable
// dimension. Sectors are capped at MaxSectorOptions.
func Options(ds *dataset.Dataset) FilterOptions {
	v := All(ds)
	accelerators := make(map[string]struct{})
	states := make(map[string]struct{})
	sectors := make(map[string]struct{})
	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		accelerators[r.Accelerator] = struct{}{}
		states[r.State] = struct{}{}
		sectors[r.Sector] = struct{}{}
	}

	return FilterOptions{
		Accelerators: sortedKeys(accelerators),
		States:       sortedKeys(states),
		Sectors:      limitStrings(sortedKeys(sectors), MaxSectorOptions),
		TRLBuckets:   domain.TRLBuckets(),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func limitStrings(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}
