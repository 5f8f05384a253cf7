// Package sheet converts uploaded spreadsheets into raw ingestion rows and
// filtered records into export workbooks.
package sheet

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"github.com/david/maintenance-analyzer/internal/ingest"
)

var (
	ErrNoSheets      = errors.New("workbook contains no sheets")
	ErrMissingHeader = errors.New("sheet has no header row")
)

// serialColumns hold dates and times that a workbook may store as serials.
var serialColumns = map[string]bool{
	ingest.FieldRequestDate: true,
	ingest.FieldRequestTime: true,
}

// Read dispatches on content: HTML-table exports are parsed as HTML, anything
// else as an xlsx workbook.
func Read(r io.Reader, sheetIndex int) ([]ingest.RawRow, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(512)
	if looksLikeHTML(head) {
		return ReadHTMLTable(br)
	}
	return ReadWorkbook(br, sheetIndex)
}

func looksLikeHTML(head []byte) bool {
	h := bytes.ToLower(bytes.TrimSpace(bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))))
	return bytes.HasPrefix(h, []byte("<")) && (bytes.Contains(h, []byte("<table")) || bytes.Contains(h, []byte("<html")) || bytes.HasPrefix(h, []byte("<!doctype")))
}

// ReadWorkbook reads one sheet of an xlsx workbook. The first row holds the
// field labels; each following non-empty row becomes a RawRow keyed by label.
func ReadWorkbook(r io.Reader, sheetIndex int) ([]ingest.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	if sheetIndex < 0 || sheetIndex >= len(sheets) {
		return nil, fmt.Errorf("sheet index %d out of range (%d sheets): %w", sheetIndex, len(sheets), ErrNoSheets)
	}

	rows, err := f.GetRows(sheets[sheetIndex], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[sheetIndex], err)
	}
	return toRawRows(rows)
}

// ReadHTMLTable reads the first table of an HTML document, as produced by
// legacy ".xls" exports.
func ReadHTMLTable(r io.Reader) ([]ingest.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoSheets
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		rows = append(rows, cells)
	})
	return toRawRows(rows)
}

func toRawRows(rows [][]string) ([]ingest.RawRow, error) {
	start := -1
	for i, row := range rows {
		if !blank(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrMissingHeader
	}

	headers := make([]string, len(rows[start]))
	for i, h := range rows[start] {
		headers[i] = strings.TrimSpace(h)
	}

	out := make([]ingest.RawRow, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		if blank(row) {
			continue
		}
		raw := make(ingest.RawRow, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			var v string
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			raw[h] = cellValue(h, v)
		}
		out = append(out, raw)
	}
	return out, nil
}

func cellValue(header, v string) any {
	if serialColumns[header] {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return v
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
