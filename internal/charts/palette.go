package charts

import "github.com/larrynino/spatial-public-health/internal/services"

// Intervention slices, darkest first
var interventionPalette = []string{
	"#08306b", "#08519c", "#2171b5", "#4292c6",
	"#6baed6", "#9ecae1", "#c6dbef", "#deebf7",
}

// Sequential scales, lightest first
var scales = map[string][]string{
	services.ScaleInterventions: {
		"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6",
		"#4292c6", "#2171b5", "#08519c", "#08306b",
	},
	services.ScalePopulation: {
		"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c",
		"#fc4e2a", "#e31a1c", "#bd0026", "#800026",
	},
}

// Case series colours
const (
	colorDengue        = "#d62728"
	colorLeishmaniasis = "#ff7f0e"
	colorMalaria       = "#2ca02c"
)

// ScaleColors returns the colour ramp of a named scale, falling back to Blues
func ScaleColors(name string) []string {
	if c, ok := scales[name]; ok {
		return c
	}
	return scales[services.ScaleInterventions]
}
