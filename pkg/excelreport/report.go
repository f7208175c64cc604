// Package excelreport renders tabular reports to xlsx workbooks. A report is
// a list of sheets, each holding ordered sections: a title line, a data table
// with configured columns, or a hidden metadata block.
package excelreport

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// SectionType selects how a section is rendered.
type SectionType string

const (
	// SectionTypeData renders an optional title, an optional header row, and
	// one row per data item. The zero value of SectionType means data.
	SectionTypeData SectionType = "data"
	// SectionTypeTitleOnly renders just the title row.
	SectionTypeTitleOnly SectionType = "title"
	// SectionTypeHidden renders like data but with its rows hidden.
	SectionTypeHidden SectionType = "hidden"
)

// ColumnConfig maps one struct field to a spreadsheet column.
type ColumnConfig struct {
	FieldName string  `yaml:"field_name"`
	Header    string  `yaml:"header"`
	Width     float64 `yaml:"width"`
}

// FontTemplate is the font part of a style.
type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"`
}

// FillTemplate is the background part of a style.
type FillTemplate struct {
	Color string `yaml:"color"`
}

// StyleTemplate styles a title or header row.
type StyleTemplate struct {
	Font *FontTemplate `yaml:"font"`
	Fill *FillTemplate `yaml:"fill"`
}

// SectionConfig describes one section of a sheet. Data must be a slice of
// structs whose exported fields are addressed by ColumnConfig.FieldName.
type SectionConfig struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Type        SectionType    `yaml:"type"`
	ShowHeader  bool           `yaml:"show_header"`
	Columns     []ColumnConfig `yaml:"columns"`
	TitleStyle  *StyleTemplate `yaml:"title_style"`
	HeaderStyle *StyleTemplate `yaml:"header_style"`
	Data        interface{}    `yaml:"-"`
}

type sheetConfig struct {
	Name     string           `yaml:"name"`
	Sections []*SectionConfig `yaml:"sections"`
}

type reportConfig struct {
	Sheets []*sheetConfig `yaml:"sheets"`
}

// Builder assembles a report fluently.
type Builder struct {
	cfg     reportConfig
	current *sheetConfig
}

// NewBuilder starts an empty report.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddSheet appends a sheet and makes it the target of subsequent AddSection calls.
func (b *Builder) AddSheet(name string) *Builder {
	s := &sheetConfig{Name: name}
	b.cfg.Sheets = append(b.cfg.Sheets, s)
	b.current = s
	return b
}

// AddSection appends a section to the current sheet.
func (b *Builder) AddSection(section *SectionConfig) *Builder {
	if b.current == nil {
		b.AddSheet("Sheet1")
	}
	b.current.Sections = append(b.current.Sections, section)
	return b
}

// Build finalizes the report.
func (b *Builder) Build() *Report {
	return &Report{cfg: b.cfg}
}

// Report is a buildable xlsx document.
type Report struct {
	cfg reportConfig
}

// NewReportFromYAML parses a report layout from YAML. Section data is bound
// afterwards with BindSectionData, keyed by section id.
func NewReportFromYAML(content string) (*Report, error) {
	var cfg reportConfig
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("parse report config: %w", err)
	}
	return &Report{cfg: cfg}, nil
}

// NewReportFromYAMLFile reads a YAML layout from disk.
func NewReportFromYAMLFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report config: %w", err)
	}
	return NewReportFromYAML(string(data))
}

// BindSectionData attaches data to the section with the given id.
func (r *Report) BindSectionData(id string, data interface{}) *Report {
	for _, sheet := range r.cfg.Sheets {
		for _, section := range sheet.Sections {
			if section.ID == id {
				section.Data = data
			}
		}
	}
	return r
}
