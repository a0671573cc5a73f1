package services

import (
	"time"

	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// MunicipalRow is one municipality as presented by the dashboard: a joined
// boundary when geometry is available, a dataset aggregate otherwise
type MunicipalRow struct {
	Key         string          `json:"key"`
	AreaCode    string          `json:"area_code,omitempty"`
	Name        string          `json:"name"`
	Counters    domain.Counters `json:"counters"`
	Matched     bool            `json:"matched"`
	HasGeometry bool            `json:"has_geometry"`
}

// MunicipalityList feeds the municipality selector
type MunicipalityList struct {
	All   string   `json:"all"`
	Names []string `json:"names"`
}

// Slice is one intervention type in the breakdown
type Slice struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Share float64 `json:"share"`
}

// Breakdown is the distribution of intervention types for a selection
type Breakdown struct {
	Municipality string  `json:"municipality"`
	Slices       []Slice `json:"slices"`
	Total        float64 `json:"total"`
}

// Empty reports whether no intervention was recorded for the selection
func (b *Breakdown) Empty() bool { return len(b.Slices) == 0 }

// MetricOption is a selectable comparison metric
type MetricOption struct {
	Key   string             `json:"key"`
	Label string             `json:"label"`
	Group domain.ColumnGroup `json:"group"`
	// Scale names the colour scale and Unit the legend title
	Scale string `json:"scale"`
	Unit  string `json:"unit"`
}

// ComparisonRow is one municipality's value for the selected metric
type ComparisonRow struct {
	Key      string  `json:"key"`
	AreaCode string  `json:"area_code,omitempty"`
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
}

// Comparison is a metric across every municipality
type Comparison struct {
	Metric MetricOption    `json:"metric"`
	Rows   []ComparisonRow `json:"rows"`
	Total  float64         `json:"total"`
	Max    float64         `json:"max"`
}

// CaseRow holds the ETV cases of one municipality
type CaseRow struct {
	Name          string  `json:"name"`
	AreaCode      string  `json:"area_code,omitempty"`
	Dengue        float64 `json:"dengue"`
	Leishmaniasis float64 `json:"leishmaniasis"`
	Malaria       float64 `json:"malaria"`
	Total         float64 `json:"total"`
}

// CaseSummary lists municipalities with at least one case, fewest first
type CaseSummary struct {
	Dengue        float64   `json:"dengue"`
	Leishmaniasis float64   `json:"leishmaniasis"`
	Malaria       float64   `json:"malaria"`
	Total         float64   `json:"total"`
	Rows          []CaseRow `json:"rows"`
}

// Summary holds headline totals
type Summary struct {
	Mode           domain.KeyMode       `json:"mode"`
	Records        int                  `json:"records"`
	Municipalities int                  `json:"municipalities"`
	Totals         domain.Counters      `json:"totals"`
	DatasetTotals  domain.Counters      `json:"dataset_totals"`
	Quality        domain.QualityReport `json:"quality"`
	GeoAvailable   bool                 `json:"geo_available"`
	LoadedAt       time.Time            `json:"loaded_at"`
}

// MapInfo describes the joined boundaries for map rendering
type MapInfo struct {
	Center     domain.LatLon `json:"center"`
	NameField  string        `json:"name_field"`
	CodeField  string        `json:"code_field"`
	SourceCRS  string        `json:"source_crs"`
	TargetCRS  string        `json:"target_crs"`
	Features   int           `json:"features"`
	Matched    int           `json:"matched"`
	OrphanKeys []string      `json:"orphan_keys,omitempty"`
}

// Status describes the loaded pipeline state
type Status struct {
	Fingerprint  string        `json:"fingerprint"`
	Mode         string        `json:"fingerprint_mode"`
	Inputs       []string      `json:"inputs"`
	LoadedAt     time.Time     `json:"loaded_at"`
	LoadDuration time.Duration `json:"load_duration_ns"`
	Records      int           `json:"records"`
	GeoAvailable bool          `json:"geo_available"`
	GeoError     string        `json:"geo_error,omitempty"`
}
