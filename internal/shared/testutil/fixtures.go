package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// DatasetRow is one fixture row. Values maps raw column keys to cell text;
// columns without a value are written as Fill.
type DatasetRow struct {
	AreaCode string
	Name     string
	Values   map[string]string
	Fill     string
}

// DatasetHeader is the divipola;mun header followed by every raw column
func DatasetHeader() []string {
	header := []string{"divipola", "mun"}
	for _, c := range domain.RawColumns() {
		header = append(header, c.Key())
	}
	return header
}

// WriteDataset writes rows as a ;-separated Latin-1 file named data_cor.csv
// under dir and returns its path
func WriteDataset(t *testing.T, dir string, rows ...DatasetRow) string {
	t.Helper()

	lines := []string{strings.Join(DatasetHeader(), ";")}
	for _, r := range rows {
		cells := []string{r.AreaCode, r.Name}
		for _, c := range domain.RawColumns() {
			v, ok := r.Values[c.Key()]
			if !ok {
				v = r.Fill
			}
			cells = append(cells, v)
		}
		lines = append(lines, strings.Join(cells, ";"))
	}

	encoded, err := charmap.ISO8859_1.NewEncoder().String(strings.Join(lines, "\n") + "\n")
	require.NoError(t, err)

	path := filepath.Join(dir, "data_cor.csv")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))
	return path
}
