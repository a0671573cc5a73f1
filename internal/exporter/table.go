package exporter

import (
	"github.com/larrynino/spatial-public-health/internal/services"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// Leading columns of every export
const (
	HeaderKey  = "clave"
	HeaderName = "municipio"
)

// Table is the municipal view flattened for export
type Table struct {
	Headers []string
	Rows    []services.MunicipalRow
}

// NewTable builds a table over the given rows
func NewTable(rows []services.MunicipalRow) *Table {
	headers := make([]string, 0, 2+int(domain.NumColumns))
	headers = append(headers, HeaderKey, HeaderName)
	for _, c := range domain.AllColumns() {
		headers = append(headers, c.Key())
	}
	return &Table{Headers: headers, Rows: rows}
}

// Records returns the rows as strings in header order
func (t *Table) Records() [][]string {
	records := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rec := make([]string, 0, len(t.Headers))
		rec = append(rec, r.Key, r.Name)
		for _, c := range domain.AllColumns() {
			rec = append(rec, formatFloat(r.Counters.Get(c)))
		}
		records[i] = rec
	}
	return records
}

// Values returns the rows with numeric cells kept as numbers
func (t *Table) Values() [][]interface{} {
	values := make([][]interface{}, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]interface{}, 0, len(t.Headers))
		row = append(row, r.Key, r.Name)
		for _, c := range domain.AllColumns() {
			row = append(row, r.Counters.Get(c))
		}
		values[i] = row
	}
	return values
}
