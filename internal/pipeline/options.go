package pipeline

import (
	"github.com/larrynino/spatial-public-health/internal/config"
	"github.com/larrynino/spatial-public-health/internal/dataprocessing"
	"github.com/larrynino/spatial-public-health/internal/geo"
)

// OptionsFromConfig maps the data section of the configuration to cache
// options
func OptionsFromConfig(d config.DataConfig) Options {
	return Options{
		CSVPath:      d.CSVPath,
		BoundaryPath: d.BoundaryPath,
		Loader: dataprocessing.LoaderOptions{
			Encoding:      d.Encoding,
			AreaCodeField: d.AreaCodeField,
			NameField:     d.NameOnlyField,
		},
		Join: geo.JoinOptions{
			CodeField: d.CodeField,
			NameField: d.NameField,
		},
		SourceCRS:       d.SourceCRS,
		FingerprintMode: FingerprintMode(d.FingerprintMode),
	}
}
