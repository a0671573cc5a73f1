package domain

import (
	"fmt"
	"strings"
)

// Column identifies one of the numeric counters carried by every intervention record
type Column int

// Numeric columns in their canonical file order
const (
	ColLocalities Column = iota
	ColLodgings
	ColLodgingsDwellings
	ColLarvicide
	ColIEC
	ColFumigation
	ColTILD
	ColVaccination
	ColPersonnel
	ColTotalInterventions
	ColPopLodging
	ColPopDwelling
	ColPopImpacted
	ColPopBenefited
	ColPopTotal
	ColDengue
	ColLeishmaniasis
	ColMalaria

	NumColumns
)

// ColumnGroup classifies columns for presentation
type ColumnGroup string

const (
	GroupIntervention ColumnGroup = "intervention"
	GroupPopulation   ColumnGroup = "population"
	GroupCases        ColumnGroup = "cases"
)

// ColumnInfo describes a numeric column
type ColumnInfo struct {
	Column  Column      `json:"-"`
	Key     string      `json:"key"`
	Label   string      `json:"label"`
	Group   ColumnGroup `json:"group"`
	Derived bool        `json:"derived"`
}

var columnInfo = [NumColumns]ColumnInfo{
	{ColLocalities, "int_loc", "Localidades intervenidas", GroupIntervention, false},
	{ColLodgings, "int_aloj", "Alojamientos intervenidos", GroupIntervention, false},
	{ColLodgingsDwellings, "int_aloviv", "Alojamientos y viviendas intervenidas", GroupIntervention, false},
	{ColLarvicide, "int_larv", "Aplicaciones larvicidas", GroupIntervention, false},
	{ColIEC, "int_iec", "Intervenciones IEC", GroupIntervention, false},
	{ColFumigation, "int_fum", "Fumigaciones espaciales", GroupIntervention, false},
	{ColTILD, "int_tild", "TILD entregados", GroupIntervention, false},
	{ColVaccination, "int_vac", "Vacunación animal", GroupIntervention, false},
	{ColPersonnel, "int_per", "Personal técnico", GroupIntervention, false},
	{ColTotalInterventions, "int_tot", "Total intervenciones", GroupIntervention, true},
	{ColPopLodging, "pob_alo", "Población impactada en alojamientos", GroupPopulation, false},
	{ColPopDwelling, "pob_viv", "Población impactada en viviendas", GroupPopulation, false},
	{ColPopImpacted, "pob_imp", "Población impactada (viviendas+alojamientos)", GroupPopulation, true},
	{ColPopBenefited, "pob_ben", "Población beneficiada indirecta", GroupPopulation, false},
	{ColPopTotal, "pob_tot", "Población total intervenida", GroupPopulation, true},
	{ColDengue, "cas_den", "Dengue", GroupCases, false},
	{ColLeishmaniasis, "cas_lei", "Leishmaniasis", GroupCases, false},
	{ColMalaria, "cas_mal", "Malaria", GroupCases, false},
}

// Components of the derived counters. Every formula is a plain sum.
var (
	TotalInterventionParts = []Column{
		ColLodgings, ColLodgingsDwellings, ColLarvicide, ColIEC,
		ColFumigation, ColTILD, ColVaccination,
	}
	PopImpactedParts = []Column{ColPopLodging, ColPopDwelling}
	PopTotalParts    = []Column{ColPopImpacted, ColPopBenefited}
)

// Info returns the column metadata
func (c Column) Info() ColumnInfo {
	if !c.Valid() {
		return ColumnInfo{Column: c, Key: fmt.Sprintf("column(%d)", int(c))}
	}
	return columnInfo[c]
}

// Key returns the source file header for the column
func (c Column) Key() string { return c.Info().Key }

// Label returns the display label
func (c Column) Label() string { return c.Info().Label }

// Derived reports whether the column is computed rather than read
func (c Column) Derived() bool { return c.Info().Derived }

// Valid reports whether c is a known column
func (c Column) Valid() bool { return c >= 0 && c < NumColumns }

func (c Column) String() string { return c.Key() }

// AllColumns returns all numeric columns in canonical order
func AllColumns() []Column {
	cols := make([]Column, NumColumns)
	for i := range cols {
		cols[i] = Column(i)
	}
	return cols
}

// RawColumns returns the columns that must be present in the source file
func RawColumns() []Column {
	cols := make([]Column, 0, NumColumns)
	for _, c := range AllColumns() {
		if !c.Derived() {
			cols = append(cols, c)
		}
	}
	return cols
}

// ColumnsInGroup returns the columns of a group in canonical order
func ColumnsInGroup(g ColumnGroup) []Column {
	var cols []Column
	for _, c := range AllColumns() {
		if c.Info().Group == g {
			cols = append(cols, c)
		}
	}
	return cols
}

// ParseColumn looks up a column by its header key (case-insensitive)
func ParseColumn(key string) (Column, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, info := range columnInfo {
		if info.Key == key {
			return info.Column, true
		}
	}
	return -1, false
}
