package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/david/maintenance-analyzer/internal/ingest"
	"github.com/david/maintenance-analyzer/internal/sheet"
)

func writeSheet(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	rows := [][]any{
		{ingest.FieldWorkAttribute, ingest.FieldRequestDate, ingest.FieldFaultDescription, ingest.FieldHandlingStatus},
		{"水", "2024/03/05", "北館A區馬桶阻塞", "更換馬桶"},
		{"電", "2024/04/01", "南館中庭燈不亮", "更換燈管2支"},
		{"", "2024/04/02", "門鎖故障", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	path := filepath.Join(dir, "records.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	path := writeSheet(t, dir)
	materials := filepath.Join(dir, "materials.json")
	require.NoError(t, os.WriteFile(materials, []byte(`[{"name":"燈管"}]`), 0o600))

	out, err := run(t, "classify", path, "--materials", materials, "--invalid")
	require.NoError(t, err)
	assert.Contains(t, out, "北館")
	assert.Contains(t, out, "燈管 x2")
	assert.Contains(t, out, "門鎖故障")
	assert.Contains(t, out, ingest.ValidationLabel(ingest.ErrCodeMissingWorkAttribute))

	out, err = run(t, "classify", path, "--venue", "南館")
	require.NoError(t, err)
	assert.NotContains(t, out, "北館")
	assert.NotContains(t, out, "門鎖故障")
}

func TestClassify_Errors(t *testing.T) {
	_, err := run(t, "classify")
	assert.Error(t, err)

	_, err = run(t, "classify", filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeSheet(t, t.TempDir())
	_, err = run(t, "classify", path, "--month", "13")
	assert.Error(t, err)
}

func TestUncategorized(t *testing.T) {
	path := writeSheet(t, t.TempDir())

	out, err := run(t, "uncategorized", path)
	require.NoError(t, err)
	assert.Contains(t, out, "北館A區馬桶阻塞")
	assert.Contains(t, out, "燈管2支")
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	path := writeSheet(t, dir)
	output := filepath.Join(dir, "report.xlsx")

	out, err := run(t, "export", path, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 records")

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{sheet.RecordsSheet, sheet.SummarySheet}, f.GetSheetList())

	_, err = run(t, "export", path, "-o", output, "--year", "2023")
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	path := writeSheet(t, t.TempDir())

	out, err := run(t, "summary", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Records: 2")
	assert.Contains(t, out, "南館")
}
