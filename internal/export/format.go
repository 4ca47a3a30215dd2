package export

import (
	"errors"
	"strings"
)

var ErrUnknownFormat = errors.New("unknown export format")

type Format struct {
	Name        string
	Extension   string
	ContentType string
	render      func(Sheet) ([]byte, error)
}

var formats = map[string]Format{
	"csv":  {Name: "csv", Extension: "csv", ContentType: "text/csv; charset=utf-8", render: CSV},
	"xlsx": {Name: "xlsx", Extension: "xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", render: XLSX},
	"pdf":  {Name: "pdf", Extension: "pdf", ContentType: "application/pdf", render: PDF},
}

// ParseFormat defaults to csv when name is blank.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "csv"
	}
	f, ok := formats[name]
	if !ok {
		return Format{}, ErrUnknownFormat
	}
	return f, nil
}

func (f Format) Render(sheet Sheet) ([]byte, error) {
	return f.render(sheet)
}
