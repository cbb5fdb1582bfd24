// Package report renders tabular reports in the formats offered for download
// and optionally archives every generated file.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Format is an output format.
type Format string

const (
	PDF  Format = "pdf"
	XLS  Format = "xls"
	HTML Format = "html"
	ODS  Format = "ods"
)

var (
	// ErrUnknownFormat is returned for formats other than pdf, xls, html and ods.
	ErrUnknownFormat = errors.New("unknown report format")
	// ErrNoTemplate is returned when a request names no template.
	ErrNoTemplate = errors.New("report template is required")
)

// ParseFormat accepts a format name or its numeric code (1 pdf, 2 xls, 3 html, 4 ods).
// An empty string selects PDF.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "pdf":
		return PDF, nil
	case "2", "xls", "xlsx":
		return XLS, nil
	case "3", "html":
		return HTML, nil
	case "4", "ods":
		return ODS, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Template is a named report layout.
type Template struct {
	Name    string
	Title   string
	Columns []string
}

// Request is one report to render.
type Request struct {
	Template Template
	// Output is the base file name; the template name is used when empty.
	Output string
	Format Format
	Params map[string]string
	Rows   [][]string
}

// File is a rendered report.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Archive stores generated files and returns where they were put.
type Archive interface {
	Store(ctx context.Context, f *File) (string, error)
}

type renderer struct {
	ext         string
	contentType string
	render      func(t Template, params map[string]string, rows [][]string) ([]byte, error)
}

var renderers = map[Format]renderer{
	PDF:  {ext: "pdf", contentType: "application/pdf", render: renderPDF},
	XLS:  {ext: "xlsx", contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", render: renderXLS},
	HTML: {ext: "html", contentType: "text/html; charset=utf-8", render: renderHTML},
	ODS:  {ext: "ods", contentType: "application/vnd.oasis.opendocument.spreadsheet", render: renderODS},
}

// Generator renders reports.
type Generator struct {
	archive Archive
	now     func() time.Time
}

// NewGenerator returns a Generator. archive may be nil.
func NewGenerator(archive Archive) *Generator {
	return &Generator{archive: archive, now: time.Now}
}

// Generate renders req. Archiving is best effort: a failure is logged and the
// file is still returned.
func (g *Generator) Generate(ctx context.Context, req Request) (*File, error) {
	if req.Template.Name == "" {
		return nil, ErrNoTemplate
	}
	if req.Format == "" {
		req.Format = PDF
	}
	r, ok := renderers[req.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, req.Format)
	}

	data, err := r.render(req.Template, req.Params, req.Rows)
	if err != nil {
		return nil, fmt.Errorf("render %s report %s: %w", req.Format, req.Template.Name, err)
	}

	output := req.Output
	if output == "" {
		output = req.Template.Name
	}
	f := &File{
		Name:        FileName(output, g.now(), r.ext),
		ContentType: r.contentType,
		Data:        data,
	}

	if g.archive != nil {
		location, err := g.archive.Store(ctx, f)
		if err != nil {
			slog.Warn("failed to archive report", "file", f.Name, "error", err)
		} else {
			slog.Info("report archived", "file", f.Name, "location", location)
		}
	}
	return f, nil
}

// FileName returns "<output>_<ddMMyyyy>.<ext>".
func FileName(output string, at time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", output, at.Format("02012006"), ext)
}

// sortedParams returns params as key/value pairs ordered by key.
func sortedParams(params map[string]string) [][2]string {
	out := make([][2]string, 0, len(params))
	for k, v := range params {
		out = append(out, [2]string{k, v})
	}
	slices.SortFunc(out, func(a, b [2]string) int { return strings.Compare(a[0], b[0]) })
	return out
}
