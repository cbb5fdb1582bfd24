package report

import (
	"bytes"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// The core PDF fonts are single-byte Windows-1252.
var cp1252 = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())

func latin1(s string) string {
	out, err := cp1252.String(s)
	if err != nil {
		return s
	}
	return out
}

func renderPDF(t Template, params map[string]string, rows [][]string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(t.Title, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, latin1(t.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, p := range sortedParams(params) {
		pdf.CellFormat(0, 5, latin1(p[0]+": "+p[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if len(t.Columns) > 0 {
		pageW, _ := pdf.GetPageSize()
		left, _, right, _ := pdf.GetMargins()
		colW := (pageW - left - right) / float64(len(t.Columns))

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range t.Columns {
			pdf.CellFormat(colW, 7, latin1(c), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		for _, row := range rows {
			for i := range t.Columns {
				pdf.CellFormat(colW, 6, latin1(cell(row, i)), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}
	if len(rows) == 0 {
		pdf.CellFormat(0, 8, "No records found.", "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
