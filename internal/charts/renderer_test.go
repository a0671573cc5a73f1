package charts

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larrynino/spatial-public-health/internal/services"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

const testAssets = "https://assets.example.org/echarts/"

func render(t *testing.T, c Renderable) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(testAssets, nil).Render(&buf, c))
	return buf.String()
}

func TestRenderer_Breakdown(t *testing.T) {
	r := NewRenderer(testAssets, nil)

	t.Run("slices", func(t *testing.T) {
		b := &services.Breakdown{
			Municipality: "MONTERÍA",
			Slices: []services.Slice{
				{Key: "int_aloj", Label: "Alojamientos", Value: 3, Share: 0.2},
				{Key: "int_tild", Label: "TILD", Value: 12, Share: 0.8},
			},
			Total: 15,
		}

		html := render(t, r.Breakdown(b))
		assert.Contains(t, html, "Distribución de Intervenciones – MONTERÍA")
		assert.Contains(t, html, "Alojamientos")
		assert.Contains(t, html, "Total: 15")
		assert.Contains(t, html, "#08306b")
		assert.Contains(t, html, testAssets)
	})

	t.Run("empty", func(t *testing.T) {
		b := &services.Breakdown{Municipality: "LORICA", Slices: []services.Slice{}}

		html := render(t, r.Breakdown(b))
		assert.Contains(t, html, "Sin intervenciones registradas")
	})
}

func TestRenderer_Comparison(t *testing.T) {
	r := NewRenderer(testAssets, nil)

	tests := []struct {
		name      string
		metric    services.MetricOption
		wantColor string
	}{
		{
			name:      "interventions use blues",
			metric:    services.MetricOption{Key: "int_tot", Label: "Total intervenciones", Group: domain.GroupIntervention, Scale: services.ScaleInterventions, Unit: services.UnitInterventions},
			wantColor: "#08306b",
		},
		{
			name:      "population uses yellow to red",
			metric:    services.MetricOption{Key: "pob_tot", Label: "Población total intervenida", Group: domain.GroupPopulation, Scale: services.ScalePopulation, Unit: services.UnitPopulation},
			wantColor: "#800026",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &services.Comparison{
				Metric: tt.metric,
				Rows: []services.ComparisonRow{
					{Key: "23001", Name: "MONTERÍA", Value: 11},
					{Key: "23417", Name: "LORICA", Value: 0},
				},
				Total: 11,
				Max:   11,
			}

			html := render(t, r.Comparison(c))
			assert.Contains(t, html, "Mapa: "+tt.metric.Label+" por Municipio")
			assert.Contains(t, html, tt.wantColor)
			assert.Contains(t, html, tt.metric.Unit)
			assert.Contains(t, html, "Montería")
			assert.Contains(t, html, "visualMap")
		})
	}
}

func TestRenderer_Cases(t *testing.T) {
	r := NewRenderer(testAssets, nil)
	cs := &services.CaseSummary{
		Rows: []services.CaseRow{
			{Name: "CERETÉ", Leishmaniasis: 1, Total: 1},
			{Name: "MONTERÍA", Dengue: 6, Malaria: 1, Total: 7},
		},
		Dengue: 6, Leishmaniasis: 1, Malaria: 1, Total: 8,
	}

	html := render(t, r.Cases(cs))
	assert.Contains(t, html, TitleCases)
	for _, s := range []string{"Dengue", "Leishmaniasis", "Malaria", colorDengue, colorLeishmaniasis, colorMalaria} {
		assert.Contains(t, html, s)
	}
	assert.Contains(t, html, "420px")
}

func TestBarHeight(t *testing.T) {
	assert.Equal(t, "420px", barHeight(0))
	assert.Equal(t, "420px", barHeight(12))
	assert.Equal(t, "1050px", barHeight(30))
}

func TestScaleColors(t *testing.T) {
	assert.Equal(t, "#800026", ScaleColors(services.ScalePopulation)[8])
	assert.Equal(t, ScaleColors(services.ScaleInterventions), ScaleColors("Viridis"))
}

func TestRenderer_Page(t *testing.T) {
	r := NewRenderer(testAssets, nil)
	b := &services.Breakdown{Municipality: services.AllMunicipalities, Slices: []services.Slice{{Label: "IEC", Value: 1, Share: 1}}, Total: 1}
	cs := &services.CaseSummary{Rows: []services.CaseRow{}}

	html := render(t, r.Page(r.Breakdown(b), r.Cases(cs)))
	assert.Contains(t, html, TitleDashboard)
	assert.Contains(t, html, TitleCases)
	assert.Contains(t, html, "Todos")
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "15", formatCount(15))
	assert.Equal(t, "2.50", formatCount(2.5))
}

func TestRenderer_WithSize(t *testing.T) {
	r := NewRenderer(testAssets, nil).WithSize("900px", "600px")
	html := render(t, r.Breakdown(&services.Breakdown{Municipality: "Todos"}))
	assert.Contains(t, html, "width:900px;height:600px;")

	r = NewRenderer(testAssets, nil).WithSize("", "")
	html = render(t, r.Breakdown(&services.Breakdown{Municipality: "Todos"}))
	assert.Contains(t, html, "width:100%;height:520px;")
}
