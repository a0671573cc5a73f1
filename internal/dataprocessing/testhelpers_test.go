package dataprocessing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

// rawHeader lists the raw numeric columns in file order
func rawHeader() []string {
	var h []string
	for _, c := range domain.RawColumns() {
		h = append(h, c.Key())
	}
	return h
}

// row builds a record line with the given raw values by key, "" elsewhere
func row(lead []string, values map[string]string) []string {
	out := append([]string{}, lead...)
	for _, key := range rawHeader() {
		out = append(out, values[key])
	}
	return out
}

// writeLatin1CSV writes a `;`-separated Latin-1 file into a temp dir
func writeLatin1CSV(t *testing.T, header []string, rows ...[]string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(strings.Join(header, ";"))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(strings.Join(r, ";"))
		b.WriteString("\n")
	}

	encoded, err := charmap.ISO8859_1.NewEncoder().String(b.String())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))
	return path
}
