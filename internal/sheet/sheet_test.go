package sheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/david/maintenance-analyzer/internal/analysis"
	"github.com/david/maintenance-analyzer/internal/ingest"
	"github.com/david/maintenance-analyzer/internal/models"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	require.NoError(t, f.SetCellStyle("Sheet1", "B2", "B3", dateStyle))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadWorkbook(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{" 工作屬性 ", "請修日期", "請修時間", "故障描述", "處理情形"},
		{"水", 45356, 0.4375, "北館A區漏水", "更換龍頭"},
		{"電", "2024/03/07", "02:15 PM", "南館中庭燈不亮", nil},
		{nil, nil, nil, nil, nil},
		{"營繕", "", "", "  ", "螺絲*2"},
	})

	rows, err := ReadWorkbook(buf, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, ingest.RawRow{
		ingest.FieldWorkAttribute:    "水",
		ingest.FieldRequestDate:      45356.0,
		ingest.FieldRequestTime:      0.4375,
		ingest.FieldFaultDescription: "北館A區漏水",
		ingest.FieldHandlingStatus:   "更換龍頭",
	}, rows[0])
	assert.Equal(t, "2024/03/07", rows[1][ingest.FieldRequestDate])
	assert.Equal(t, "", rows[1][ingest.FieldHandlingStatus])
	assert.Equal(t, "", rows[2][ingest.FieldFaultDescription])

	assert.Equal(t, "2024/03/05", ingest.FormatDate(rows[0][ingest.FieldRequestDate]))
	assert.Equal(t, "10:30 AM", ingest.FormatTime(rows[0][ingest.FieldRequestTime]))
}

func TestReadWorkbook_Errors(t *testing.T) {
	_, err := ReadWorkbook(strings.NewReader("not a zip"), 0)
	assert.Error(t, err)

	_, err = ReadWorkbook(buildWorkbook(t, [][]any{{"工作屬性"}}), 3)
	assert.ErrorIs(t, err, ErrNoSheets)

	_, err = ReadWorkbook(buildWorkbook(t, nil), 0)
	assert.ErrorIs(t, err, ErrMissingHeader)
}

const htmlExport = `<html><body>
<table>
  <tr><th>工作屬性</th><th>請修日期</th><th>故障描述</th><th>處理情形</th></tr>
  <tr><td>水</td><td>45356</td><td>北館A區 <b>漏水</b></td><td>更換龍頭</td></tr>
  <tr><td></td><td></td><td></td><td></td></tr>
  <tr><td>電</td><td>2024/03/07</td><td>燈不亮</td></tr>
</table>
</body></html>`

func TestReadHTMLTable(t *testing.T) {
	rows, err := ReadHTMLTable(strings.NewReader(htmlExport))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 45356.0, rows[0][ingest.FieldRequestDate])
	assert.Equal(t, "北館A區 漏水", rows[0][ingest.FieldFaultDescription])
	assert.Equal(t, "", rows[1][ingest.FieldHandlingStatus])

	_, err = ReadHTMLTable(strings.NewReader("<html><body><p>empty</p></body></html>"))
	assert.ErrorIs(t, err, ErrNoSheets)
}

func TestRead_Dispatch(t *testing.T) {
	rows, err := Read(strings.NewReader(htmlExport), 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = Read(buildWorkbook(t, [][]any{{"工作屬性"}, {"水"}}), 0)
	require.NoError(t, err)
	assert.Equal(t, []ingest.RawRow{{ingest.FieldWorkAttribute: "水"}}, rows)
}

func TestExportRows(t *testing.T) {
	rows := ExportRows([]models.MaintenanceRecord{{
		WorkAttribute:          "水",
		RequestDate:            "2024/03/05",
		RequestTime:            "10:30 AM",
		FaultDescription:       "北館A區漏水",
		HandlingStatus:         "更換龍頭2個",
		Venue:                  models.VenueNorth,
		Area:                   "A區",
		WorkTypeClassification: models.WorkTypeWater,
		FaultTags:              []string{"漏水", "龍頭"},
		MaterialsUsed:          []models.Material{{Name: "龍頭", Quantity: 2}, {Name: "止水帶", Quantity: 0.5}},
	}})

	require.Len(t, rows, 1)
	assert.Equal(t, "漏水, 龍頭", rows[0][ColumnFaultTags])
	assert.Equal(t, "龍頭 x2, 止水帶 x0.5", rows[0][ColumnMaterials])
	assert.Equal(t, models.VenueNorth, rows[0][ColumnVenue])
	assert.Len(t, rows[0], len(ExportColumns))
}

func TestWriteExport(t *testing.T) {
	records := []models.MaintenanceRecord{
		{WorkAttribute: "水", RequestDate: "2024/03/05", Venue: models.VenueNorth, FaultTags: []string{"漏水"}, IsValid: true},
		{WorkAttribute: "電", RequestDate: "2024/03/06", Venue: models.VenueSouth, IsValid: true},
	}
	summary := analysis.BuildSummary(records, records, "", "")

	data, err := WriteExport(ExportRows(records), SummaryStats(summary))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{RecordsSheet, SummarySheet}, f.GetSheetList())

	recordRows, err := f.GetRows(RecordsSheet)
	require.NoError(t, err)
	require.Len(t, recordRows, 3)
	assert.Equal(t, ExportColumns, recordRows[0])
	assert.Equal(t, "水", recordRows[1][0])
	assert.Equal(t, "2024/03/06", recordRows[2][1])

	summaryRows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"統計項目", "數值"}, summaryRows[0])
	assert.Equal(t, []string{"篩選後維修案件數", "2"}, summaryRows[1])

	panes, err := f.GetPanes(RecordsSheet)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
}
