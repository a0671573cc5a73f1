package exporter

import (
	"fmt"
	"strconv"
	"strings"
)

// Format selects an export file type
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatGeoJSON Format = "geojson"
)

// Formats lists every export format
func Formats() []Format {
	return []Format{FormatCSV, FormatXLSX, FormatGeoJSON}
}

// ParseFormats parses a comma separated list; "all" selects every format
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		p := strings.ToLower(strings.TrimSpace(part))
		switch p {
		case "":
			continue
		case "all":
			return Formats(), nil
		case string(FormatCSV), string(FormatXLSX), string(FormatGeoJSON):
			f := Format(p)
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		default:
			return nil, fmt.Errorf("unknown export format %q", part)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no export format given")
	}
	return out, nil
}

// Extension returns the file extension of the format, with the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the HTTP media type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatGeoJSON:
		return "application/geo+json"
	}
	return "application/octet-stream"
}

// formatFloat renders a count without trailing zeros
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
