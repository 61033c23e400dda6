package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

// Display limits for the grouped views.
const (
	TopAccelerators  = 20
	TopSectors       = 15
	TopStatesShown   = 20
	MaxSectorOptions = 100
)

// ViewName identifies one of the grouped views.
type ViewName string

const (
	ViewAccelerators ViewName = "accelerators"
	ViewSectors      ViewName = "sectors"
	ViewTRL          ViewName = "trl"
	ViewStages       ViewName = "stages"
	ViewStates       ViewName = "states"
)

// ViewNames lists the grouped views in dashboard order.
func ViewNames() []ViewName {
	return []ViewName{ViewAccelerators, ViewSectors, ViewTRL, ViewStages, ViewStates}
}

// ErrUnknownView is returned by GroupView for names outside ViewNames.
var ErrUnknownView = errors.New("unknown view")

// Summary holds the headline metrics of a filtered subset.
type Summary struct {
	TotalStartups     int `json:"total_startups"`
	TotalAccelerators int `json:"total_accelerators"`
	StatesCovered     int `json:"states_covered"`
	// MostCommonTRL is nil when no record in the subset has a TRL.
	MostCommonTRL *int `json:"most_common_trl"`
	Records       int  `json:"records"`
}

// Group is one bar or slice of a grouped view.
type Group struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Summarize computes the headline metrics of v.
func Summarize(v View) Summary {
	startups := make(map[string]struct{})
	accelerators := make(map[string]struct{})
	states := make(map[string]struct{})
	trls := make(map[int]int)

	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		startups[r.Startup] = struct{}{}
		accelerators[r.Accelerator] = struct{}{}
		states[r.State] = struct{}{}
		if r.TRLNum != nil {
			trls[*r.TRLNum]++
		}
	}

	return Summary{
		TotalStartups:     len(startups),
		TotalAccelerators: len(accelerators),
		StatesCovered:     len(states),
		MostCommonTRL:     modeTRL(trls),
		Records:           v.Len(),
	}
}

// modeTRL returns the most frequent TRL, the smallest value on ties.
func modeTRL(counts map[int]int) *int {
	if len(counts) == 0 {
		return nil
	}
	best, bestCount := 0, -1
	for trl, n := range counts {
		if n > bestCount || (n == bestCount && trl < best) {
			best, bestCount = trl, n
		}
	}
	return &best
}

// ByAccelerator counts distinct startups per accelerator, top 20.
func ByAccelerator(v View) []Group {
	return limit(distinctStartupsBy(v, func(r *domain.StartupRecord) string { return r.Accelerator }), TopAccelerators)
}

// BySector counts distinct startups per sector, top 15.
func BySector(v View) []Group {
	return limit(distinctStartupsBy(v, func(r *domain.StartupRecord) string { return r.Sector }), TopSectors)
}

// ByState counts distinct startups per state. Every state is returned;
// displays show the first TopStatesShown.
func ByState(v View) []Group {
	return distinctStartupsBy(v, func(r *domain.StartupRecord) string { return r.State })
}

// ByTRL counts records per TRL value in ascending TRL order. Records
// without a TRL are left out.
func ByTRL(v View) []Group {
	counts := make(map[int]int)
	for i := 0; i < v.Len(); i++ {
		if n := v.At(i).TRLNum; n != nil {
			counts[*n]++
		}
	}
	levels := make([]int, 0, len(counts))
	for trl := range counts {
		levels = append(levels, trl)
	}
	sort.Ints(levels)

	groups := make([]Group, 0, len(levels))
	for _, trl := range levels {
		groups = append(groups, Group{Key: strconv.Itoa(trl), Count: counts[trl]})
	}
	return groups
}

// ByStage counts records (not distinct startups) per stage, descending.
// Equal counts keep stage display order. Absent stages are omitted.
func ByStage(v View) []Group {
	counts := make(map[domain.Stage]int)
	for i := 0; i < v.Len(); i++ {
		counts[v.At(i).Stage]++
	}
	groups := make([]Group, 0, len(counts))
	for stage, n := range counts {
		groups = append(groups, Group{Key: string(stage), Count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return domain.Stage(groups[i].Key).Rank() < domain.Stage(groups[j].Key).Rank()
	})
	return groups
}

// GroupView computes the named view.
func GroupView(v View, name ViewName) ([]Group, error) {
	switch name {
	case ViewAccelerators:
		return ByAccelerator(v), nil
	case ViewSectors:
		return BySector(v), nil
	case ViewTRL:
		return ByTRL(v), nil
	case ViewStages:
		return ByStage(v), nil
	case ViewStates:
		return ByState(v), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
}

// distinctStartupsBy counts distinct startup names per key, sorted by
// count descending then key ascending.
func distinctStartupsBy(v View, key func(*domain.StartupRecord) string) []Group {
	members := make(map[string]map[string]struct{})
	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		k := key(r)
		set, ok := members[k]
		if !ok {
			set = make(map[string]struct{})
			members[k] = set
		}
		set[r.Startup] = struct{}{}
	}

	groups := make([]Group, 0, len(members))
	for k, set := range members {
		groups = append(groups, Group{Key: k, Count: len(set)})
	}
	sortGroups(groups)
	return groups
}

func sortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})
}

func limit(groups []Group, n int) []Group {
	if len(groups) > n {
		return groups[:n]
	}
	return groups
}
