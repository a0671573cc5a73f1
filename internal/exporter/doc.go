// Package exporter writes the municipal totals as CSV or XLSX and the joined
// boundaries as GeoJSON.
//
// Table: the municipal view flattened to one header and one string row per
// municipality; numeric cells keep full precision.
//
// CSVWriter: semicolon separated output with an optional UTF-8 BOM so Excel
// opens accented names correctly, to a writer or to a file under the export
// directory.
//
// XLSX: one "Municipios" sheet with the table plus a "Columnas" sheet that
// documents every column.
//
// Example usage:
//
//	table := exporter.NewTable(rows)
//	w := exporter.NewCSVWriter(cfg.Data.ExportDir)
//	path, err := w.WriteFile("totales.csv", table)
package exporter
