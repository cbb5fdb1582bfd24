package report

import (
	"github.com/xuri/excelize/v2"
)

func renderXLS(t Template, params map[string]string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	set := func(col, row int, v string) error {
		ref, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellStr(sheet, ref, v)
	}

	line := 1
	if err := set(1, line, t.Title); err != nil {
		return nil, err
	}
	line++
	for _, p := range sortedParams(params) {
		if err := set(1, line, p[0]); err != nil {
			return nil, err
		}
		if err := set(2, line, p[1]); err != nil {
			return nil, err
		}
		line++
	}
	line++

	for i, c := range t.Columns {
		if err := set(i+1, line, c); err != nil {
			return nil, err
		}
	}
	for _, row := range rows {
		line++
		for i := range t.Columns {
			if err := set(i+1, line, cell(row, i)); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
