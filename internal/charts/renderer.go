package charts

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/larrynino/spatial-public-health/internal/services"
	"github.com/larrynino/spatial-public-health/pkg/contracts"
)

// Chart titles
const (
	TitleBreakdown  = "Distribución de Intervenciones"
	TitleCases      = "Casos de ETV Identificados por Municipio"
	TitleDashboard  = contracts.AppName
	comparisonTitle = "Mapa: %s por Municipio"
)

// Layout
const (
	DefaultWidth     = "100%"
	DefaultPieHeight = "520px"

	minBarHeight   = 420
	rowHeight      = 35
	labelGridSpace = "22%"
)

// Renderer builds go-echarts charts from dashboard views
type Renderer struct {
	assetsHost string
	width      string
	pieHeight  string
	logger     *slog.Logger
}

// NewRenderer creates a renderer. An empty assets host keeps the go-echarts
// default CDN.
func NewRenderer(assetsHost string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		assetsHost: assetsHost,
		width:      DefaultWidth,
		pieHeight:  DefaultPieHeight,
		logger:     logger.With(slog.String("component", "charts")),
	}
}

// WithSize sets the chart width and the pie height. Bar charts keep growing
// with their categories. Empty values keep the defaults.
func (r *Renderer) WithSize(width, pieHeight string) *Renderer {
	if width != "" {
		r.width = width
	}
	if pieHeight != "" {
		r.pieHeight = pieHeight
	}
	return r
}

func (r *Renderer) init(title, height string) opts.Initialization {
	return opts.Initialization{
		PageTitle:  title,
		Width:      r.width,
		Height:     height,
		AssetsHost: r.assetsHost,
	}
}

// barHeight grows horizontal bars with the number of categories
func barHeight(n int) string {
	h := n * rowHeight
	if h < minBarHeight {
		h = minBarHeight
	}
	return fmt.Sprintf("%dpx", h)
}

// Breakdown renders the intervention distribution of a selection as a pie
func (r *Renderer) Breakdown(b *services.Breakdown) *charts.Pie {
	title := fmt.Sprintf("%s – %s", TitleBreakdown, b.Municipality)
	subtitle := fmt.Sprintf("Total: %s", formatCount(b.Total))
	if b.Empty() {
		subtitle = "Sin intervenciones registradas"
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(r.init(title, r.pieHeight)),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Formatter: "{b}: {c} ({d}%)"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Orient: "vertical", Left: "left", Top: "middle"}),
		charts.WithColorsOpts(opts.Colors(interventionPalette)),
	)

	data := make([]opts.PieData, 0, len(b.Slices))
	for _, s := range b.Slices {
		data = append(data, opts.PieData{Name: s.Label, Value: s.Value})
	}
	pie.AddSeries("Intervenciones", data,
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"35%", "65%"}}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
	)
	return pie
}

// Comparison renders one metric per municipality as a horizontal bar
// coloured through a visual map on the metric's scale
func (r *Renderer) Comparison(c *services.Comparison) *charts.Bar {
	title := fmt.Sprintf(comparisonTitle, c.Metric.Label)

	// echarts draws the first category at the bottom of a reversed axis
	names := make([]string, len(c.Rows))
	data := make([]opts.BarData, len(c.Rows))
	for i, row := range c.Rows {
		j := len(c.Rows) - 1 - i
		names[j] = services.TitleName(row.Name)
		data[j] = opts.BarData{Name: names[j], Value: row.Value}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(r.init(title, barHeight(len(c.Rows)))),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("Total: %s", formatCount(c.Total))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithGridOpts(opts.Grid{Left: labelGridSpace}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.Metric.Unit}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxOrOne(c.Max)),
			InRange:    &opts.VisualMapInRange{Color: ScaleColors(c.Metric.Scale)},
		}),
	)
	bar.SetXAxis(names).AddSeries(c.Metric.Label, data)
	bar.XYReversal()
	return bar
}

// Cases renders the ETV cases as a grouped horizontal bar, one series per
// disease
func (r *Renderer) Cases(cs *services.CaseSummary) *charts.Bar {
	names := make([]string, len(cs.Rows))
	dengue := make([]opts.BarData, len(cs.Rows))
	leish := make([]opts.BarData, len(cs.Rows))
	malaria := make([]opts.BarData, len(cs.Rows))
	for i, row := range cs.Rows {
		names[i] = services.TitleName(row.Name)
		dengue[i] = opts.BarData{Value: row.Dengue}
		leish[i] = opts.BarData{Value: row.Leishmaniasis}
		malaria[i] = opts.BarData{Value: row.Malaria}
	}

	subtitle := fmt.Sprintf("Dengue: %s · Leishmaniasis: %s · Malaria: %s",
		formatCount(cs.Dengue), formatCount(cs.Leishmaniasis), formatCount(cs.Malaria))

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(r.init(TitleCases, barHeight(len(cs.Rows)))),
		charts.WithTitleOpts(opts.Title{Title: TitleCases, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithGridOpts(opts.Grid{Left: labelGridSpace}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Casos"}),
	)
	bar.SetXAxis(names).
		AddSeries("Dengue", dengue, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorDengue})).
		AddSeries("Leishmaniasis", leish, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorLeishmaniasis})).
		AddSeries("Malaria", malaria, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorMalaria}))
	bar.XYReversal()
	return bar
}

// Page combines charts into one HTML document
func (r *Renderer) Page(charters ...components.Charter) *components.Page {
	page := components.NewPage()
	page.PageTitle = TitleDashboard
	if r.assetsHost != "" {
		page.SetAssetsHost(r.assetsHost)
	}
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(charters...)
	return page
}

// Renderable is anything go-echarts can write as HTML
type Renderable interface {
	Render(w io.Writer) error
}

// Chart is a single renderable chart that can also join a Page
type Chart interface {
	components.Charter
	Renderable
}

// Render writes a chart or page as HTML
func (r *Renderer) Render(w io.Writer, c Renderable) error {
	if err := c.Render(w); err != nil {
		r.logger.Error("chart render failed", slog.String("error", err.Error()))
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func maxOrOne(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

func formatCount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
