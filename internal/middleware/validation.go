package middleware

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/internal/services"
)

// maxMunicipalityLen bounds the municipality selector, in runes
const maxMunicipalityLen = 100

// Validator checks request parameters declared as tagged structs. Field
// names in errors come from the `query` tag.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a validator with the dashboard's custom tags:
// metric (a comparison metric key) and municipality (a printable selector)
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New()

	v.RegisterValidation("metric", isMetric)
	v.RegisterValidation("municipality", isMunicipality)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{
		validate: v,
		logger:   logger.With(slog.String("component", "validator")),
	}
}

// Struct validates s and returns an APIError listing every failed field
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return apierrors.InvalidRequest(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	v.logger.Debug("request validation failed", slog.Int("errors", len(out)))
	return apierrors.NewValidationErrors(out)
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field, param := err.Field(), err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "metric":
		keys := make([]string, 0)
		for _, o := range append(services.InterventionOptions(), services.PopulationOptions()...) {
			keys = append(keys, o.Key)
		}
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(keys, ", "))
	case "municipality":
		return fmt.Sprintf("%s must be a printable name or area code of at most %d characters", field, maxMunicipalityLen)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isMetric accepts the comparison metric keys
func isMetric(fl validator.FieldLevel) bool {
	_, _, ok := services.LookupMetric(fl.Field().String())
	return ok
}

// isMunicipality accepts printable UTF-8 up to maxMunicipalityLen runes
func isMunicipality(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !utf8.ValidString(s) || utf8.RuneCountInString(s) > maxMunicipalityLen {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
