package dataprocessing

import (
	"sort"

	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// Aggregate groups the dataset by its key (area code or name, depending on
// the mode) and sums every numeric column per group. Derived counters are
// summed like any other column; this matches recomputing them from summed
// components only because every derivation is a plain sum.
// Groups are returned sorted by key.
func Aggregate(ds *domain.Dataset) []domain.MunicipalTotals {
	if ds == nil || len(ds.Records) == 0 {
		return []domain.MunicipalTotals{}
	}

	index := make(map[string]int)
	groups := make([]domain.MunicipalTotals, 0)

	for _, rec := range ds.Records {
		key := rec.Key(ds.Mode)

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.MunicipalTotals{Key: key})
			if ds.Mode == domain.KeyModeCoded {
				groups[i].AreaCode = key
			}
		}

		g := &groups[i]
		g.RecordCount++
		g.Counters.Add(rec.Counters)
		if g.Name == "" && isDisplayName(rec.Name) {
			g.Name = rec.Name
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Key < groups[b].Key
	})

	return groups
}

// IndexByKey maps each aggregate to its key
func IndexByKey(totals []domain.MunicipalTotals) map[string]domain.MunicipalTotals {
	m := make(map[string]domain.MunicipalTotals, len(totals))
	for _, t := range totals {
		m[t.Key] = t
	}
	return m
}

func isDisplayName(name string) bool {
	return name != "" && name != FillValue
}
