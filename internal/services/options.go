package services

import (
	"strings"

	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// Colour scales and legend units of the comparison views
const (
	ScaleInterventions = "Blues"
	ScalePopulation    = "YlOrRd"
	UnitInterventions  = "Cantidad"
	UnitPopulation     = "Personas"
)

var (
	interventionMetrics = []domain.Column{
		domain.ColTotalInterventions, domain.ColLocalities, domain.ColLodgings,
		domain.ColLodgingsDwellings, domain.ColLarvicide, domain.ColIEC,
		domain.ColFumigation, domain.ColTILD, domain.ColVaccination, domain.ColPersonnel,
	}
	populationMetrics = []domain.Column{
		domain.ColPopTotal, domain.ColPopImpacted, domain.ColPopBenefited,
		domain.ColPopLodging, domain.ColPopDwelling,
	}
)

// breakdownTypes are the intervention kinds shown in the distribution,
// with their short labels
var breakdownTypes = []struct {
	col   domain.Column
	label string
}{
	{domain.ColLocalities, "Localidades"},
	{domain.ColLodgings, "Alojamientos"},
	{domain.ColLodgingsDwellings, "Aloj. y Viviendas"},
	{domain.ColLarvicide, "Larvicidas"},
	{domain.ColIEC, "IEC"},
	{domain.ColFumigation, "Fumigaciones"},
	{domain.ColTILD, "TILD"},
	{domain.ColVaccination, "Vacunación"},
}

func optionFor(col domain.Column) MetricOption {
	info := col.Info()
	opt := MetricOption{Key: info.Key, Label: info.Label, Group: info.Group}
	if info.Group == domain.GroupPopulation {
		opt.Scale, opt.Unit = ScalePopulation, UnitPopulation
	} else {
		opt.Scale, opt.Unit = ScaleInterventions, UnitInterventions
	}
	return opt
}

// InterventionOptions lists the intervention metrics, total first
func InterventionOptions() []MetricOption {
	opts := make([]MetricOption, len(interventionMetrics))
	for i, c := range interventionMetrics {
		opts[i] = optionFor(c)
	}
	return opts
}

// PopulationOptions lists the population metrics, total first
func PopulationOptions() []MetricOption {
	opts := make([]MetricOption, len(populationMetrics))
	for i, c := range populationMetrics {
		opts[i] = optionFor(c)
	}
	return opts
}

// LookupMetric resolves a comparison metric by column key
func LookupMetric(key string) (domain.Column, MetricOption, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, group := range [][]domain.Column{interventionMetrics, populationMetrics} {
		for _, c := range group {
			if c.Key() == key {
				return c, optionFor(c), true
			}
		}
	}
	return 0, MetricOption{}, false
}
