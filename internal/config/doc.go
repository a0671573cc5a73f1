// Package config provides centralized configuration management for the
// dashboard. Values come from three sources, in increasing precedence:
//
//	1. Default()
//	2. a YAML file (ETV_CONFIG, config.yaml or configs/config.yaml)
//	3. environment variables
//
// # Environment Variables
//
// Variables are namespaced with ETV_ and follow the struct layout:
//
//	ETV_SERVER_PORT=8080
//	ETV_DATA_CSV_PATH=data/data_cor.csv
//	ETV_DATA_BOUNDARY_PATH=data/mun_cor.shp
//	ETV_DATA_NAME_FIELD=mpio_cnmbr
//	ETV_DATA_SOURCE_CRS=EPSG:3116
//	ETV_DATA_FINGERPRINT_MODE=content
//	ETV_LOGGING_LEVEL=debug
//
// An empty ETV_DATA_BOUNDARY_PATH disables the geometry join; tabular views
// keep working.
//
// # Validation
//
// Load validates the result with go-playground/validator struct tags and
// resolves relative input paths against the working directory, falling back
// to the executable directory.
package config
