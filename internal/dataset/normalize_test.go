package dataset

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

// cohortTable builds a table with the required headers in a shuffled order
// plus an unrelated column, and the given rows keyed by header.
func cohortTable(rows ...map[string]any) *Table {
	headers := []string{
		"  " + ColumnStage + " ",
		"S.No",
		ColumnStartup,
		ColumnAccelerator,
		ColumnSector,
		ColumnTechnology,
		ColumnTRL + "\t",
		ColumnState,
	}
	t := &Table{Headers: headers}
	for _, r := range rows {
		row := make([]any, len(headers))
		for i, h := range headers {
			row[i] = r[strings.TrimSpace(h)]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func row(startup, accel, sector, trl, stage, state string) map[string]any {
	return map[string]any{
		ColumnStartup:     startup,
		ColumnAccelerator: accel,
		ColumnSector:      sector,
		ColumnTechnology:  "AI",
		ColumnTRL:         trl,
		ColumnStage:       stage,
		ColumnState:       state,
	}
}

func TestNormalize_Scenarios(t *testing.T) {
	ds, err := Normalize(cohortTable(
		row("Alpha", "Acc One", "Health", "TRL 4", "Scale-up Phase", "Kerala"),
		row("Beta", "Acc Two", "Agri", "N/A", "Ideation", "Goa"),
	))
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)

	alpha := ds.Records[0]
	require.NotNil(t, alpha.TRLNum)
	assert.Equal(t, 4, *alpha.TRLNum)
	assert.Equal(t, domain.TRLBucketMid, alpha.TRLBucket)
	assert.Equal(t, domain.StageScaleUp, alpha.Stage)
	assert.Equal(t, "TRL 4", alpha.TRLRaw)
	assert.Equal(t, "Scale-up Phase", alpha.StageRaw)

	beta := ds.Records[1]
	assert.Nil(t, beta.TRLNum)
	assert.Equal(t, domain.TRLBucketUnknown, beta.TRLBucket)
	assert.Equal(t, domain.StageIdeation, beta.Stage)

	assert.Equal(t, 2, ds.Meta.Rows)
	assert.Len(t, ds.Meta.Fingerprint, 64)
}

func TestNormalize_TrimsAndCoerces(t *testing.T) {
	r := row("  Gamma  ", "\tAcc\t", " Fintech", "7", "PMF", "Delhi ")
	r[ColumnTechnology] = nil
	r[ColumnTRL] = 7.0
	r[ColumnState] = 110001.0

	ds, err := Normalize(cohortTable(r))
	require.NoError(t, err)
	rec := ds.Records[0]

	assert.Equal(t, "Gamma", rec.Startup)
	assert.Equal(t, "Acc", rec.Accelerator)
	assert.Equal(t, "Fintech", rec.Sector)
	assert.Equal(t, MissingCell, rec.Technology)
	assert.Equal(t, "110001", rec.State)
	assert.Equal(t, "7", rec.TRLRaw)
	require.NotNil(t, rec.TRLNum)
	assert.Equal(t, 7, *rec.TRLNum)
	assert.Equal(t, domain.TRLBucketLate, rec.TRLBucket)
}

func TestNormalize_ShortRowsAndBlankRows(t *testing.T) {
	table := cohortTable(row("Delta", "Acc", "Edu", "2", "Launched", "Goa"))
	table.Rows = append(table.Rows,
		[]any{},
		[]any{"", "  ", nil},
		[]any{"Ideation", "9", "Epsilon"},
	)

	ds, err := Normalize(table)
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, 2, ds.Meta.SkippedRows)

	short := ds.Records[1]
	assert.Equal(t, "Epsilon", short.Startup)
	assert.Equal(t, MissingCell, short.Accelerator)
	assert.Equal(t, domain.StageIdeation, short.Stage)
	assert.Nil(t, short.TRLNum)
	assert.Equal(t, domain.TRLBucketUnknown, short.TRLBucket)
}

func TestNormalize_MissingColumns(t *testing.T) {
	table := &Table{
		Headers: []string{ColumnStartup, ColumnAccelerator, ColumnSector, ColumnTechnology, "Technology Readiness Level (TRL)", ColumnState},
		Rows:    [][]any{{"A", "B", "C", "D", "4", "E"}},
	}

	ds, err := Normalize(table)
	assert.Nil(t, ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{ColumnTRL, ColumnStage}, schemaErr.Missing)
	assert.Contains(t, err.Error(), "Stage of startup")
}

func TestNormalize_NilTable(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestNormalize_DuplicateHeaderFirstWins(t *testing.T) {
	table := cohortTable(row("Zeta", "Acc", "Edu", "5", "PMF", "Goa"))
	table.Headers = append(table.Headers, ColumnStartup)
	table.Rows[0] = append(table.Rows[0], "Shadow")

	ds, err := Normalize(table)
	require.NoError(t, err)
	assert.Equal(t, "Zeta", ds.Records[0].Startup)
}

func TestExtractTRL(t *testing.T) {
	tests := []struct {
		raw  string
		want *int
	}{
		{"7", intp(7)},
		{"TRL 4", intp(4)},
		{"TRL 4-5", intp(4)},
		{"Level 06 reached", intp(6)},
		{"N/A", nil},
		{"", nil},
		{"nan", nil},
		{"ＴＲＬ ４", intp(4)},
		{"٣", intp(3)},
		{"0", intp(0)},
		{"99999999999999999999999", nil},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTRL(tt.raw))
		})
	}
}

func TestExtractTRL_IdempotentOnExtractedValue(t *testing.T) {
	for _, raw := range []string{"TRL 1", "8 (validated)", "stage 3 of 9"} {
		first := ExtractTRL(raw)
		require.NotNil(t, first)
		again := ExtractTRL(strconv.Itoa(*first))
		require.NotNil(t, again)
		assert.Equal(t, *first, *again)
	}
}

func TestNormalizeStage(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.Stage
	}{
		{"Ideation to Scale-up", domain.StageIdeation},
		{"Product launched", domain.StageProductLaunched},
		{"random text", domain.StageUnknown},
		{"  PMF  ", domain.StagePMF},
		{"pre-launch", domain.StageProductLaunched},
		{"SCALE UP", domain.StageScaleUp},
		{"Launched; PMF pending", domain.StagePMF},
		{MissingCell, domain.StageUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStage(tt.raw))
		})
	}
}

func TestTrimIdempotent(t *testing.T) {
	ds, err := Normalize(cohortTable(row(" Eta ", "Acc", "Edu", "5", "PMF", "Goa")))
	require.NoError(t, err)

	again, err := Normalize(cohortTable(row(ds.Records[0].Startup, "Acc", "Edu", "5", "PMF", "Goa")))
	require.NoError(t, err)
	assert.Equal(t, ds.Records[0].Startup, again.Records[0].Startup)
	assert.Equal(t, ds.Meta.Fingerprint, again.Meta.Fingerprint)
}

func TestCellText(t *testing.T) {
	assert.Equal(t, MissingCell, cellText(nil))
	assert.Equal(t, MissingCell, cellText(""))
	assert.Equal(t, "4", cellText(4.0))
	assert.Equal(t, "4.5", cellText(4.5))
	assert.Equal(t, "12", cellText(12))
	assert.Equal(t, "true", cellText(true))
	assert.Equal(t, "  x ", cellText("  x "))
}

func intp(v int) *int { return &v }
