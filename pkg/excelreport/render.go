package excelreport

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	"github.com/xuri/excelize/v2"
)

// ToBytes renders the report to an in-memory xlsx workbook.
func (r *Report) ToBytes() ([]byte, error) {
	f, err := r.render()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ToWriter streams the rendered workbook to w.
func (r *Report) ToWriter(w io.Writer) error {
	f, err := r.render()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// SaveAs renders the workbook to a file.
func (r *Report) SaveAs(path string) error {
	f, err := r.render()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func (r *Report) render() (*excelize.File, error) {
	f := excelize.NewFile()

	for i, sheet := range r.cfg.Sheets {
		name := sheet.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			// Rename the default sheet instead of leaving it empty.
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, err
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, err
			}
		}

		row := 1
		for _, section := range sheet.Sections {
			next, err := renderSection(f, name, row, section)
			if err != nil {
				return nil, fmt.Errorf("sheet %s section %q: %w", name, section.Title, err)
			}
			row = next
		}
	}
	return f, nil
}

// renderSection writes one section starting at startRow and returns the next
// free row (one blank row is left after every section).
func renderSection(f *excelize.File, sheet string, startRow int, section *SectionConfig) (int, error) {
	row := startRow
	hidden := section.Type == SectionTypeHidden

	if section.Title != "" {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, cell, section.Title); err != nil {
			return row, err
		}
		if err := applyStyle(f, sheet, row, 1, section.TitleStyle); err != nil {
			return row, err
		}
		if hidden {
			_ = f.SetRowVisible(sheet, row, false)
		}
		row++
	}

	if section.Type == SectionTypeTitleOnly {
		return row + 1, nil
	}

	if err := setColumnWidths(f, sheet, section.Columns); err != nil {
		return row, err
	}

	if section.ShowHeader && len(section.Columns) > 0 {
		for col, c := range section.Columns {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			header := c.Header
			if header == "" {
				header = c.FieldName
			}
			if err := f.SetCellValue(sheet, cell, header); err != nil {
				return row, err
			}
		}
		if err := applyStyle(f, sheet, row, len(section.Columns), section.HeaderStyle); err != nil {
			return row, err
		}
		if hidden {
			_ = f.SetRowVisible(sheet, row, false)
		}
		row++
	}

	if section.Data != nil {
		data := reflect.ValueOf(section.Data)
		if data.Kind() != reflect.Slice {
			return row, fmt.Errorf("section data must be a slice, got %s", data.Kind())
		}
		for i := 0; i < data.Len(); i++ {
			item := data.Index(i)
			for col, c := range section.Columns {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(sheet, cell, fieldValue(item, c.FieldName)); err != nil {
					return row, err
				}
			}
			if hidden {
				_ = f.SetRowVisible(sheet, row, false)
			}
			row++
		}
	}

	return row + 1, nil
}

func setColumnWidths(f *excelize.File, sheet string, cols []ColumnConfig) error {
	for i, c := range cols {
		if c.Width <= 0 {
			continue
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, c.Width); err != nil {
			return err
		}
	}
	return nil
}

func applyStyle(f *excelize.File, sheet string, row, cols int, tpl *StyleTemplate) error {
	if tpl == nil {
		return nil
	}

	style := &excelize.Style{}
	if tpl.Font != nil {
		style.Font = &excelize.Font{Bold: tpl.Font.Bold, Color: tpl.Font.Color}
	}
	if tpl.Fill != nil && tpl.Fill.Color != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{tpl.Fill.Color}}
	}

	id, err := f.NewStyle(style)
	if err != nil {
		return err
	}

	if cols < 1 {
		cols = 1
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(cols, row)
	return f.SetCellStyle(sheet, first, last, id)
}

// fieldValue pulls a named exported field out of a struct value. Unknown
// fields render as empty cells rather than failing the export.
func fieldValue(item reflect.Value, field string) interface{} {
	if item.Kind() == reflect.Ptr {
		if item.IsNil() {
			return nil
		}
		item = item.Elem()
	}
	if item.Kind() != reflect.Struct {
		return nil
	}
	v := item.FieldByName(field)
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}
