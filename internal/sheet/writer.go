package sheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/david/maintenance-analyzer/internal/analysis"
	"github.com/david/maintenance-analyzer/internal/ingest"
	"github.com/david/maintenance-analyzer/internal/models"
)

const (
	RecordsSheet = "維修紀錄"
	SummarySheet = "統計結果 (基於篩選)"

	summaryItemHeader  = "統計項目"
	summaryValueHeader = "數值"
)

// Export column labels, in sheet order.
const (
	ColumnWorkAttribute    = ingest.FieldWorkAttribute
	ColumnRequestDate      = ingest.FieldRequestDate
	ColumnRequestTime      = ingest.FieldRequestTime
	ColumnFaultDescription = ingest.FieldFaultDescription
	ColumnHandlingStatus   = ingest.FieldHandlingStatus
	ColumnVenue            = "場域"
	ColumnArea             = "區域"
	ColumnWorkType         = "基礎分類"
	ColumnFaultTags        = "故障標籤"
	ColumnMaterials        = "使用材料"
)

var ExportColumns = []string{
	ColumnWorkAttribute,
	ColumnRequestDate,
	ColumnRequestTime,
	ColumnFaultDescription,
	ColumnHandlingStatus,
	ColumnVenue,
	ColumnArea,
	ColumnWorkType,
	ColumnFaultTags,
	ColumnMaterials,
}

var columnWidths = []float64{10, 12, 12, 40, 50, 10, 12, 10, 24, 40}

// ExportRow is one record flattened to labeled columns.
type ExportRow map[string]string

// SummaryStat is one line of the summary sheet.
type SummaryStat struct {
	Item  string `json:"item"`
	Value any    `json:"value"`
}

// FormatMaterials renders materials as "name xQTY" pairs joined by ", ".
func FormatMaterials(materials []models.Material) string {
	parts := make([]string, len(materials))
	for i, m := range materials {
		parts[i] = m.Name + " x" + ingest.FormatQuantity(m.Quantity)
	}
	return strings.Join(parts, ", ")
}

func ExportRows(records []models.MaintenanceRecord) []ExportRow {
	out := make([]ExportRow, len(records))
	for i, r := range records {
		out[i] = ExportRow{
			ColumnWorkAttribute:    r.WorkAttribute,
			ColumnRequestDate:      r.RequestDate,
			ColumnRequestTime:      r.RequestTime,
			ColumnFaultDescription: r.FaultDescription,
			ColumnHandlingStatus:   r.HandlingStatus,
			ColumnVenue:            r.Venue,
			ColumnArea:             r.Area,
			ColumnWorkType:         r.WorkTypeClassification,
			ColumnFaultTags:        strings.Join(r.FaultTags, ", "),
			ColumnMaterials:        FormatMaterials(r.MaterialsUsed),
		}
	}
	return out
}

// SummaryStats lists the filtered record count followed by venue and fault
// type counts and material totals.
func SummaryStats(s analysis.Summary) []SummaryStat {
	stats := []SummaryStat{{Item: "篩選後維修案件數", Value: s.TotalRecords}}
	for _, v := range s.Venues {
		stats = append(stats, SummaryStat{Item: "場域：" + v.Value, Value: v.Count})
	}
	for _, f := range s.FaultTypes {
		stats = append(stats, SummaryStat{Item: "故障類型：" + f.Value, Value: f.Count})
	}
	for _, m := range s.Materials {
		stats = append(stats, SummaryStat{Item: "材料用量：" + m.Name, Value: m.Quantity})
	}
	return stats
}

// ExportFilename names a report generated at t.
func ExportFilename(t time.Time) string {
	return "維修紀錄分析報告_" + t.Format("2006-01-02") + ".xlsx"
}

// WriteExport builds the two-sheet report workbook.
func WriteExport(rows []ExportRow, summary []SummaryStat) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	header := make([]any, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = c
	}
	if err := writeRow(f, RecordsSheet, 1, header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		values := make([]any, len(ExportColumns))
		for j, c := range ExportColumns {
			values[j] = row[c]
		}
		if err := writeRow(f, RecordsSheet, i+2, values); err != nil {
			return nil, err
		}
	}
	if err := styleHeader(f, RecordsSheet, len(ExportColumns), headerStyle); err != nil {
		return nil, err
	}
	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(RecordsSheet, col, col, w); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	if err := f.SetPanes(RecordsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	if err := writeRow(f, SummarySheet, 1, []any{summaryItemHeader, summaryValueHeader}); err != nil {
		return nil, err
	}
	for i, s := range summary {
		if err := writeRow(f, SummarySheet, i+2, []any{s.Item, s.Value}); err != nil {
			return nil, err
		}
	}
	if err := styleHeader(f, SummarySheet, 2, headerStyle); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 30); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, cols, style int) error {
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}
