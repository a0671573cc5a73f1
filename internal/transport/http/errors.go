package http

import (
	"errors"

	apierrors "github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/internal/geo"
	"github.com/larrynino/spatial-public-health/internal/services"
)

// toAPIError maps service and pipeline failures to API errors with stable
// error codes. Unknown errors pass through to the ErrorHandler.
func toAPIError(err error) error {
	switch {
	case errors.Is(err, services.ErrMunicipalityNotFound):
		return apierrors.ErrMunicipalityNotFound.WithDetails(err.Error())
	case errors.Is(err, services.ErrInvalidMetric):
		return apierrors.ErrValidation("metric", err.Error())
	case errors.Is(err, geo.ErrJoinUnsupported):
		return apierrors.ErrJoinUnsupported
	case errors.Is(err, services.ErrNoGeometry):
		return apierrors.GeoSourceUnavailable(err)
	case errors.Is(err, services.ErrNotReady):
		return apierrors.ServiceUnavailable(err)
	case apierrors.IsDataSourceError(err):
		return apierrors.DataSourceUnavailable(err)
	case apierrors.IsGeoSourceError(err):
		return apierrors.GeoSourceUnavailable(err)
	}
	return err
}
