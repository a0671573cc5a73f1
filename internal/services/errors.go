package services

import "errors"

// Dashboard service errors
var (
	ErrMunicipalityNotFound = errors.New("municipality not found")
	ErrInvalidMetric        = errors.New("invalid comparison metric")
	ErrNoGeometry           = errors.New("municipal boundaries are not available")
	ErrNotReady             = errors.New("dashboard data is not loaded")
)
