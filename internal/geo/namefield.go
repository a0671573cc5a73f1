package geo

import (
	"strings"

	"github.com/larrynino/spatial-public-health/internal/errors"
)

// NameHints are the substrings that mark a field as a display name
var NameHints = []string{"nmbr", "nombre", "name"}

// fieldRule picks a field from the schema or reports no match
type fieldRule struct {
	name string
	pick func(fields []string, configured string) (string, bool)
}

// nameFieldRules are evaluated in order; the first match wins
var nameFieldRules = []fieldRule{
	{"configured", func(fields []string, configured string) (string, bool) {
		configured = strings.TrimSpace(configured)
		if configured == "" {
			return "", false
		}
		for _, f := range fields {
			if strings.EqualFold(f, configured) {
				return f, true
			}
		}
		return "", false
	}},
	{"name_hint", func(fields []string, _ string) (string, bool) {
		for _, f := range fields {
			lower := strings.ToLower(f)
			for _, hint := range NameHints {
				if strings.Contains(lower, hint) {
					return f, true
				}
			}
		}
		return "", false
	}},
	{"second_field", func(fields []string, _ string) (string, bool) {
		if len(fields) >= 2 {
			return fields[1], true
		}
		return "", false
	}},
	{"last_field", func(fields []string, _ string) (string, bool) {
		if len(fields) > 0 {
			return fields[len(fields)-1], true
		}
		return "", false
	}},
}

// ResolveNameField returns the display-name field and the rule that chose it
func ResolveNameField(fields []string, configured string) (field, rule string, err error) {
	for _, r := range nameFieldRules {
		if f, ok := r.pick(fields, configured); ok {
			return f, r.name, nil
		}
	}
	return "", "", errors.NewGeoSourceError("boundary file has no attribute fields", nil)
}
