package analytics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/dataset"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

func rec(startup, accel, sector, state string, trl int, stage domain.Stage) domain.StartupRecord {
	r := domain.StartupRecord{
		Startup:     startup,
		Accelerator: accel,
		Sector:      sector,
		Technology:  "AI",
		State:       state,
		Stage:       stage,
		StageRaw:    string(stage),
		TRLRaw:      dataset.MissingCell,
	}
	if trl >= 0 {
		n := trl
		r.TRLNum = &n
		r.TRLRaw = fmt.Sprint(trl)
	}
	r.TRLBucket = domain.BucketForTRL(r.TRLNum)
	return r
}

func cohort() *dataset.Dataset {
	return &dataset.Dataset{
		Records: []domain.StartupRecord{
			rec("Alpha", "Acc One", "Health", "Kerala", 4, domain.StagePMF),
			rec("Beta", "Acc One", "Agri", "Goa", 8, domain.StageIdeation),
			rec("Alpha", "Acc Two", "Health", "Kerala", 4, domain.StagePMF),
			rec("Gamma", "Acc Two", "Fintech", "Goa", 2, domain.StageScaleUp),
			rec("Delta", "Acc Three", "Agri", "Delhi", -1, domain.StageUnknown),
			rec("Epsilon", "Acc Two", "Health", "Kerala", 8, domain.StagePMF),
		},
		Meta: dataset.Meta{Source: "test", Rows: 6, Fingerprint: "abc"},
	}
}

func TestApply_AndAcrossOrWithin(t *testing.T) {
	ds := cohort()

	v := Apply(ds, Filter{Accelerators: []string{"Acc One", "Acc Three"}, States: []string{"Goa", "Delhi"}})
	require.Equal(t, 2, v.Len())
	assert.Equal(t, "Beta", v.At(0).Startup)
	assert.Equal(t, "Delta", v.At(1).Startup)

	v = Apply(ds, Filter{TRLBuckets: []domain.TRLBucket{domain.TRLBucketUnknown}})
	require.Equal(t, 1, v.Len())
	assert.Equal(t, "Delta", v.At(0).Startup)
}

func TestApply_EmptyFilterKeepsEverything(t *testing.T) {
	ds := cohort()
	v := Apply(ds, Filter{})
	assert.Equal(t, ds.Len(), v.Len())
	assert.Equal(t, ds.Records, v.Records())
}

func TestApply_ExactMatch(t *testing.T) {
	v := Apply(cohort(), Filter{States: []string{"kerala"}})
	assert.Zero(t, v.Len())
}

func TestApply_DoesNotMutateDataset(t *testing.T) {
	ds := cohort()
	before := append([]domain.StartupRecord(nil), ds.Records...)
	_ = Apply(ds, Filter{Sectors: []string{"Health"}})
	assert.Equal(t, before, ds.Records)
}

func TestFilter_Commutes(t *testing.T) {
	ds := cohort()
	acc := Filter{Accelerators: []string{"Acc Two"}}
	state := Filter{States: []string{"Kerala"}}
	bucket := Filter{TRLBuckets: []domain.TRLBucket{domain.TRLBucketLate, domain.TRLBucketMid}}

	both := Apply(ds, acc.Merge(state).Merge(bucket)).Records()
	assert.Equal(t, both, All(ds).Filter(acc).Filter(state).Filter(bucket).Records())
	assert.Equal(t, both, All(ds).Filter(bucket).Filter(state).Filter(acc).Records())
	require.Len(t, both, 2)
	assert.Equal(t, "Alpha", both[0].Startup)
	assert.Equal(t, "Epsilon", both[1].Startup)
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{TRLBuckets: domain.TRLBuckets(), States: []string{"Goa"}}.Validate())

	err := Filter{TRLBuckets: []domain.TRLBucket{"Mid (4-6)", "Ancient"}, States: []string{""}}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFilter))

	var fe *FilterError
	require.True(t, errors.As(err, &fe))
	require.Len(t, fe.Violations, 3)
	assert.Equal(t, "states[0]", fe.Violations[0].Field)
	assert.Equal(t, "trl_buckets[0]", fe.Violations[1].Field)
	assert.Contains(t, fe.Violations[2].Message, "Ancient")
}

func TestSummarize(t *testing.T) {
	s := Summarize(All(cohort()))

	assert.Equal(t, 5, s.TotalStartups)
	assert.Equal(t, 3, s.TotalAccelerators)
	assert.Equal(t, 3, s.StatesCovered)
	assert.Equal(t, 6, s.Records)
	require.NotNil(t, s.MostCommonTRL)
	// 4 and 8 both appear twice; the smaller level wins.
	assert.Equal(t, 4, *s.MostCommonTRL)
}

func TestSummarize_EmptySubset(t *testing.T) {
	v := Apply(cohort(), Filter{States: []string{"Nowhere"}})

	s := Summarize(v)
	assert.Equal(t, Summary{}, s)
	assert.Nil(t, s.MostCommonTRL)

	views := ComputeViews(v)
	assert.Empty(t, views.Accelerators)
	assert.Empty(t, views.Sectors)
	assert.Empty(t, views.TRL)
	assert.Empty(t, views.Stages)
	assert.Empty(t, views.States)
	assert.NotNil(t, views.Accelerators)
}

func TestSummarize_NoTRLData(t *testing.T) {
	v := Apply(cohort(), Filter{TRLBuckets: []domain.TRLBucket{domain.TRLBucketUnknown}})
	s := Summarize(v)
	assert.Equal(t, 1, s.TotalStartups)
	assert.Nil(t, s.MostCommonTRL)
}

func TestSummarize_DistinctNeverExceedsRows(t *testing.T) {
	ds := cohort()
	filters := []Filter{
		{},
		{Accelerators: []string{"Acc Two"}},
		{States: []string{"Kerala", "Goa"}},
		{Sectors: []string{"Health"}, TRLBuckets: []domain.TRLBucket{domain.TRLBucketMid}},
	}
	for _, f := range filters {
		v := Apply(ds, f)
		s := Summarize(v)
		assert.LessOrEqual(t, s.TotalStartups, v.Len())
		assert.LessOrEqual(t, s.TotalAccelerators, v.Len())
		assert.LessOrEqual(t, s.StatesCovered, v.Len())
	}
}

func TestDuplicateStartupAcrossAccelerators(t *testing.T) {
	ds := &dataset.Dataset{Records: []domain.StartupRecord{
		rec("Alpha", "Acc One", "Health", "Kerala", 4, domain.StagePMF),
		rec("Alpha", "Acc Two", "Health", "Kerala", 4, domain.StagePMF),
	}}
	v := All(ds)

	assert.Equal(t, 1, Summarize(v).TotalStartups)
	assert.Equal(t, []Group{{Key: "Acc One", Count: 1}, {Key: "Acc Two", Count: 1}}, ByAccelerator(v))
	assert.Equal(t, []Group{{Key: "Health", Count: 1}}, BySector(v))
	// The stage view counts rows, not startups.
	assert.Equal(t, []Group{{Key: string(domain.StagePMF), Count: 2}}, ByStage(v))
}

func TestByAccelerator_SortAndTies(t *testing.T) {
	got := ByAccelerator(All(cohort()))
	assert.Equal(t, []Group{
		{Key: "Acc Two", Count: 3},
		{Key: "Acc One", Count: 2},
		{Key: "Acc Three", Count: 1},
	}, got)
}

func TestBySector_TiesByKey(t *testing.T) {
	got := BySector(All(cohort()))
	assert.Equal(t, []Group{
		{Key: "Agri", Count: 2},
		{Key: "Health", Count: 2},
		{Key: "Fintech", Count: 1},
	}, got)
}

func TestTopNLimits(t *testing.T) {
	var records []domain.StartupRecord
	for i := 0; i < 30; i++ {
		records = append(records, rec(fmt.Sprintf("S%02d", i), fmt.Sprintf("A%02d", i), fmt.Sprintf("Sec%02d", i), fmt.Sprintf("St%02d", i), 5, domain.StagePMF))
	}
	v := All(&dataset.Dataset{Records: records})

	assert.Len(t, ByAccelerator(v), TopAccelerators)
	assert.Len(t, BySector(v), TopSectors)
	assert.Len(t, ByState(v), 30)
	assert.Equal(t, "A00", ByAccelerator(v)[0].Key)
}

func TestByTRL_AscendingByLevel(t *testing.T) {
	got := ByTRL(All(cohort()))
	assert.Equal(t, []Group{
		{Key: "2", Count: 1},
		{Key: "4", Count: 2},
		{Key: "8", Count: 2},
	}, got)
}

func TestByStage_CountsRowsWithEnumTies(t *testing.T) {
	got := ByStage(All(cohort()))
	assert.Equal(t, []Group{
		{Key: string(domain.StagePMF), Count: 3},
		{Key: string(domain.StageIdeation), Count: 1},
		{Key: string(domain.StageScaleUp), Count: 1},
		{Key: string(domain.StageUnknown), Count: 1},
	}, got)
}

func TestByState(t *testing.T) {
	got := ByState(All(cohort()))
	assert.Equal(t, []Group{
		{Key: "Goa", Count: 2},
		{Key: "Kerala", Count: 2},
		{Key: "Delhi", Count: 1},
	}, got)
}

func TestGroupView(t *testing.T) {
	v := All(cohort())
	for _, name := range ViewNames() {
		groups, err := GroupView(v, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, groups, name)
	}

	_, err := GroupView(v, "funding")
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestStartups_DrillDown(t *testing.T) {
	ds := cohort()
	ds.Records = append(ds.Records, rec("Aardvark", "Acc Two", "Edu", "Goa", -1, domain.StageIdeation))

	rows := Startups(All(ds), "Acc Two")
	require.Len(t, rows, 4)
	names := []string{rows[0].Startup, rows[1].Startup, rows[2].Startup, rows[3].Startup}
	assert.Equal(t, []string{"Aardvark", "Alpha", "Epsilon", "Gamma"}, names)
	assert.Nil(t, rows[0].TRLNum)
	assert.Equal(t, domain.StageScaleUp, rows[3].Stage)

	filtered := Startups(Apply(ds, Filter{States: []string{"Goa"}}), "Acc Two")
	require.Len(t, filtered, 2)
	assert.Equal(t, "Aardvark", filtered[0].Startup)

	assert.Empty(t, Startups(All(ds), "Nobody"))
}

func TestOptions(t *testing.T) {
	ds := cohort()
	ds.Records = append(ds.Records, rec("Zeta", "", "Agri", "Goa", 3, domain.StagePMF))

	opts := Options(ds)
	assert.Equal(t, []string{"Acc One", "Acc Three", "Acc Two"}, opts.Accelerators)
	assert.Equal(t, []string{"Delhi", "Goa", "Kerala"}, opts.States)
	assert.Equal(t, []string{"Agri", "Fintech", "Health"}, opts.Sectors)
	assert.Equal(t, domain.TRLBuckets(), opts.TRLBuckets)
}

func TestOptions_SectorCap(t *testing.T) {
	var records []domain.StartupRecord
	for i := 0; i < 120; i++ {
		records = append(records, rec("S", "A", fmt.Sprintf("Sector %03d", i), "Goa", 1, domain.StagePMF))
	}
	opts := Options(&dataset.Dataset{Records: records})
	assert.Len(t, opts.Sectors, MaxSectorOptions)
	assert.Equal(t, "Sector 000", opts.Sectors[0])
}

func TestBuild(t *testing.T) {
	ds := cohort()
	d, err := Build(ds, Filter{Accelerators: []string{"Acc Two"}})
	require.NoError(t, err)

	assert.Equal(t, 3, d.Summary.TotalStartups)
	assert.Equal(t, []string{"Acc Two"}, d.Filter.Accelerators)
	assert.Equal(t, ds.Meta, d.Dataset)
	assert.Len(t, d.Charts, 5)
	assert.Equal(t, Options(ds), d.Options)

	_, err = Build(ds, Filter{TRLBuckets: []domain.TRLBucket{"bogus"}})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestBuild_NilDataset(t *testing.T) {
	d, err := Build(nil, Filter{})
	require.NoError(t, err)
	assert.Zero(t, d.Summary.Records)
	assert.Empty(t, d.Options.Accelerators)
}
