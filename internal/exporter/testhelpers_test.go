package exporter

import (
	"github.com/larrynino/spatial-public-health/internal/services"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

func testRows() []services.MunicipalRow {
	var monteria, cerete domain.Counters
	monteria.Set(domain.ColLodgings, 3)
	monteria.Set(domain.ColTILD, 5)
	monteria.Set(domain.ColDengue, 6)
	monteria.Recompute()
	cerete.Set(domain.ColPopLodging, 2.5)
	cerete.Recompute()

	return []services.MunicipalRow{
		{Key: "23001", AreaCode: "23001", Name: "MONTERÍA", Counters: monteria, Matched: true},
		{Key: "23162", AreaCode: "23162", Name: "CERETÉ; SUR", Counters: cerete, Matched: true},
	}
}
