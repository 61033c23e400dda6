package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/dataset"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := dataset.DefaultSheet
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))

	rows := [][]any{
		{dataset.ColumnStartup, dataset.ColumnAccelerator, dataset.ColumnSector, dataset.ColumnTechnology, dataset.ColumnTRL, dataset.ColumnState, dataset.ColumnStage},
		{"Zeta Labs", "Acc One", "Health", "AI", "TRL 4", "Kerala", "PMF"},
		{"Alpha Agro", "Acc One", "Agri", "IoT", "N/A", "Goa", "Ideation"},
		{"Gamma Pay", "Acc Two", "Fintech", "AI", 7, "Goa", "Scale-up"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "cohort.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DASHBOARD_CONFIG_FILE", "")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummaryCmd(t *testing.T) {
	out, err := run(t, "summary", "--workbook", writeWorkbook(t))
	require.NoError(t, err)

	assert.Contains(t, out, "Total startups:")
	assert.Regexp(t, `Total startups:\s+3`, out)
	assert.Regexp(t, `States covered:\s+2`, out)
	assert.Contains(t, out, "Accelerator → Startups")
	assert.Contains(t, out, "TRL Distribution")
	assert.Contains(t, out, "Geography (States)")
}

func TestSummaryCmd_Filtered(t *testing.T) {
	out, err := run(t, "summary", "--workbook", writeWorkbook(t), "--state", "Goa", "--trl-bucket", "unknown")
	require.NoError(t, err)

	assert.Regexp(t, `Total startups:\s+1`, out)
	assert.Regexp(t, `Most common TRL:\s+-`, out)
	assert.Contains(t, out, "(no data)")
}

func TestSummaryCmd_BadBucket(t *testing.T) {
	_, err := run(t, "summary", "--workbook", writeWorkbook(t), "--trl-bucket", "TRL 10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--trl-bucket")
}

func TestStartupsCmd(t *testing.T) {
	out, err := run(t, "startups", "Acc One", "--workbook", writeWorkbook(t))
	require.NoError(t, err)

	assert.Contains(t, out, "STARTUP")
	assert.Less(t, bytes.Index([]byte(out), []byte("Alpha Agro")), bytes.Index([]byte(out), []byte("Zeta Labs")))
	assert.Contains(t, out, "2 startups")
}

func TestStartupsCmd_Unknown(t *testing.T) {
	out, err := run(t, "startups", "Acc Nine", "--workbook", writeWorkbook(t))
	require.NoError(t, err)
	assert.Contains(t, out, `No startups found for "Acc Nine"`)
}

func TestStartupsCmd_RequiresArg(t *testing.T) {
	_, err := run(t, "startups", "--workbook", writeWorkbook(t))
	assert.Error(t, err)
}

func TestMissingWorkbook(t *testing.T) {
	_, err := run(t, "summary", "--workbook", filepath.Join(t.TempDir(), "absent.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build dashboard")
}
