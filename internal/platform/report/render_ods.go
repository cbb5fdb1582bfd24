package report

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

const odsMimetype = "application/vnd.oasis.opendocument.spreadsheet"

const odsManifest = `<?xml version="1.0" encoding="UTF-8"?>
<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0" manifest:version="1.2">
 <manifest:file-entry manifest:full-path="/" manifest:version="1.2" manifest:media-type="application/vnd.oasis.opendocument.spreadsheet"/>
 <manifest:file-entry manifest:full-path="content.xml" manifest:media-type="text/xml"/>
</manifest:manifest>
`

const odsContentHead = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" office:version="1.2">
<office:body><office:spreadsheet><table:table table:name="Report">
`

const odsContentTail = `</table:table></office:spreadsheet></office:body></office:document-content>
`

// renderODS writes a minimal OpenDocument spreadsheet: one table, string cells only.
func renderODS(t Template, params map[string]string, rows [][]string) ([]byte, error) {
	var content strings.Builder
	content.WriteString(odsContentHead)
	writeODSRow(&content, []string{t.Title})
	for _, p := range sortedParams(params) {
		writeODSRow(&content, []string{p[0], p[1]})
	}
	writeODSRow(&content, nil)
	writeODSRow(&content, t.Columns)
	for _, row := range rows {
		cells := make([]string, len(t.Columns))
		for i := range t.Columns {
			cells[i] = cell(row, i)
		}
		writeODSRow(&content, cells)
	}
	content.WriteString(odsContentTail)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// mimetype must be the first entry and stored uncompressed.
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, odsMimetype); err != nil {
		return nil, err
	}

	for _, entry := range []struct{ name, body string }{
		{"META-INF/manifest.xml", odsManifest},
		{"content.xml", content.String()},
	} {
		w, err := zw.Create(entry.name)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, entry.body); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeODSRow(b *strings.Builder, cells []string) {
	b.WriteString("<table:table-row>")
	if len(cells) == 0 {
		b.WriteString("<table:table-cell/>")
	}
	for _, c := range cells {
		b.WriteString(`<table:table-cell office:value-type="string"><text:p>`)
		_ = xml.EscapeText(b, []byte(c))
		b.WriteString("</text:p></table:table-cell>")
	}
	b.WriteString("</table:table-row>\n")
}
