package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// Sheet names of the workbook
const (
	SheetMunicipalities = "Municipios"
	SheetColumns        = "Columnas"
)

// WriteXLSX writes the table as a workbook
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMunicipalities); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetMunicipalities, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range t.Values() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetMunicipalities, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(t.Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetMunicipalities, "A1", last, bold); err != nil {
		return err
	}
	if err := f.SetPanes(SheetMunicipalities, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if err := writeColumnSheet(f); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeColumnSheet(f *excelize.File) error {
	if _, err := f.NewSheet(SheetColumns); err != nil {
		return err
	}
	header := []interface{}{"columna", "descripcion", "grupo", "derivada"}
	if err := f.SetSheetRow(SheetColumns, "A1", &header); err != nil {
		return err
	}
	for i, c := range domain.AllColumns() {
		info := c.Info()
		row := []interface{}{info.Key, info.Label, string(info.Group), info.Derived}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetColumns, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// WriteXLSXFile writes the workbook under dir and returns its full path
func WriteXLSXFile(dir, filePath string, t *Table) (string, error) {
	fullPath := resolvePath(dir, filePath)
	return fullPath, writeFile(fullPath, func(w io.Writer) error {
		return WriteXLSX(w, t)
	})
}
