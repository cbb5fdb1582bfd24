package report

import (
	"bytes"
	"html/template"
)

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{"cell": cell}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; font-size: 12px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 4px; text-align: left; }
th { background: #e6e6e6; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Params}}<p><strong>{{index . 0}}:</strong> {{index . 1}}</p>
{{end}}<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- $cols := .Columns}}
{{range .Rows}}<tr>{{$row := .}}{{range $i, $c := $cols}}<td>{{cell $row $i}}</td>{{end}}</tr>
{{else}}<tr><td colspan="{{len .Columns}}">No records found.</td></tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

func renderHTML(t Template, params map[string]string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	err := htmlReport.Execute(&buf, struct {
		Title   string
		Params  [][2]string
		Columns []string
		Rows    [][]string
	}{
		Title:   t.Title,
		Params:  sortedParams(params),
		Columns: t.Columns,
		Rows:    rows,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
