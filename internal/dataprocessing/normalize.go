package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// NormalizeAreaCode renders a raw administrative code as the canonical join
// key: integral floats lose their fraction ("23001.0" -> "23001") and the
// result is left-padded with zeros to domain.AreaCodeWidth. Blank input
// becomes all zeros. Longer codes are returned unchanged with oversized set.
func NormalizeAreaCode(raw string) (code string, oversized bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return strings.Repeat("0", domain.AreaCodeWidth), false
	}

	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && f >= 0 && f < 1e15 {
			s = strconv.FormatInt(int64(f), 10)
		}
	}

	if len(s) > domain.AreaCodeWidth {
		return s, true
	}
	return strings.Repeat("0", domain.AreaCodeWidth-len(s)) + s, false
}

// ParseCount coerces a cell to a finite non-negative number. Anything else
// yields 0 with ok false; that is a correction, not an error.
func ParseCount(cell string) (v float64, ok bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

// Normalize re-applies the cleaning rules to an in-memory dataset: area
// codes padded, counters made finite and non-negative, derived counters
// recomputed. Applying it to its own output changes nothing.
func Normalize(ds *domain.Dataset) {
	if ds == nil {
		return
	}

	for i := range ds.Records {
		rec := &ds.Records[i]

		if ds.Mode == domain.KeyModeCoded {
			rec.AreaCode, _ = NormalizeAreaCode(rec.AreaCode)
		}
		if ds.Mode == domain.KeyModeNameOnly && strings.TrimSpace(rec.Name) == "" {
			rec.Name = FillValue
		}

		for _, col := range domain.AllColumns() {
			v := rec.Counters.Get(col)
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				rec.Counters.Set(col, 0)
			}
		}
		rec.Counters.Recompute()
	}
}
