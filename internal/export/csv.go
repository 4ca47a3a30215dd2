// Package export renders attendance data as CSV, XLSX and PDF downloads.
package export

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"emsconsole/internal/emsapi"
	"emsconsole/internal/view"
)

// SkipColumnAttr on a header cell drops that column from exports.
const SkipColumnAttr = "data-export-skip"

var ErrNoTable = errors.New("no table in rendered html")

// Sheet is tabular data ready for any of the export formats.
type Sheet struct {
	Title   string
	Headers []string
	Rows    [][]string
	Summary []string
}

func WriteCSV(w io.Writer, sheet Sheet) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(sheet.Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range sheet.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func CSV(sheet Sheet) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sheet); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURI encodes content for a download anchor's href.
func DataURI(mime string, content []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(content)
}

// TableFromHTML reads the header and body cell text of the first table
// matching selector in rendered HTML.
func TableFromHTML(html, selector string) (Sheet, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Sheet{}, fmt.Errorf("parse table html: %w", err)
	}
	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return Sheet{}, ErrNoTable
	}

	var sheet Sheet
	skip := map[int]bool{}
	table.Find("thead tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		if _, ok := th.Attr(SkipColumnAttr); ok {
			skip[i] = true
			return
		}
		sheet.Headers = append(sheet.Headers, cellText(th))
	})
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 1 && len(sheet.Headers) > 1 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(i int, td *goquery.Selection) {
			if !skip[i] {
				row = append(row, cellText(td))
			}
		})
		sheet.Rows = append(sheet.Rows, row)
	})
	return sheet, nil
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// FromTable converts a table view-model into a sheet.
func FromTable(title string, table view.Table) Sheet {
	sheet := Sheet{Title: title, Headers: append([]string(nil), table.Headers...)}
	for _, row := range table.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.Text
		}
		sheet.Rows = append(sheet.Rows, cells)
	}
	return sheet
}

// ReportSheet is the attendance report with its period summary.
func ReportSheet(report emsapi.AttendanceReport) Sheet {
	sheet := FromTable("Attendance Report", view.ReportTable(report.Rows))
	s := report.Summary
	sheet.Summary = []string{
		fmt.Sprintf("Period: %s to %s", s.StartDate, s.EndDate),
		fmt.Sprintf("Working days: %d", s.WorkingDays),
		fmt.Sprintf("Employees: %d", s.TotalEmployees),
	}
	return sheet
}

// Filename builds a download name such as attendance-report-2025-03-01.csv.
func Filename(base, date, ext string) string {
	name := base
	if date != "" {
		name += "-" + date
	}
	return name + "." + ext
}
