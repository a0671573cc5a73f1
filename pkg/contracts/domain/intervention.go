package domain

import "time"

// AreaCodeWidth is the fixed width of a normalized municipal area code
const AreaCodeWidth = 5

// KeyMode selects how records are identified and grouped
type KeyMode string

const (
	// KeyModeCoded groups by the zero-padded area code (DIVIPOLA)
	KeyModeCoded KeyMode = "coded"
	// KeyModeNameOnly groups by the raw municipality name
	KeyModeNameOnly KeyMode = "name_only"
)

// InterventionRecord represents one municipality-level report row
type InterventionRecord struct {
	AreaCode string   `json:"area_code,omitempty"`
	Name     string   `json:"municipality_name,omitempty"`
	Counters Counters `json:"counters"`
}

// Key returns the grouping key of the record for the given mode
func (r InterventionRecord) Key(mode KeyMode) string {
	if mode == KeyModeNameOnly {
		return r.Name
	}
	return r.AreaCode
}

// Dataset is the cleaned intervention table
type Dataset struct {
	Mode       KeyMode              `json:"mode"`
	Records    []InterventionRecord `json:"records"`
	SourcePath string               `json:"source_path,omitempty"`
	LoadedAt   time.Time            `json:"loaded_at"`
	Quality    QualityReport        `json:"quality"`
}

// QualityReport counts the cell-level corrections applied while cleaning.
// None of them is an error.
type QualityReport struct {
	FilledCells    int      `json:"filled_cells"`
	CoercedCells   int      `json:"coerced_cells"`
	OversizedCodes int      `json:"oversized_codes"`
	IgnoredColumns []string `json:"ignored_columns,omitempty"`
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Totals sums every column across all records
func (d *Dataset) Totals() Counters {
	var total Counters
	if d == nil {
		return total
	}
	for _, r := range d.Records {
		total.Add(r.Counters)
	}
	return total
}

// MunicipalTotals is the per-municipality aggregate of a dataset
type MunicipalTotals struct {
	Key         string   `json:"key"`
	AreaCode    string   `json:"area_code,omitempty"`
	Name        string   `json:"name,omitempty"`
	RecordCount int      `json:"record_count"`
	Counters    Counters `json:"counters"`
}

// DisplayName returns the name, falling back to the key
func (m MunicipalTotals) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Key
}
