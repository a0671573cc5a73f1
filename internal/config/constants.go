package config

import "time"

// Application constants
const (
	AppName    = "ETV Dashboard"
	AppVersion = "1.0.0"

	// Input defaults, relative to the working directory
	DefaultCSVPath      = "data/data_cor.csv"
	DefaultBoundaryPath = "data/mun_cor.shp"

	// Dataset fields
	DefaultAreaCodeField = "divipola"
	DefaultNameOnlyField = "mun"

	// Boundary fields
	DefaultNameField = "mpio_cnmbr"
	DefaultCodeField = "mpio_cdpmp"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

	ReloadTimeout = 2 * time.Minute
)
