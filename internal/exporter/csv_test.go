package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	table := NewTable(testRows())

	require.Len(t, table.Headers, 20)
	assert.Equal(t, []string{"clave", "municipio", "int_loc"}, table.Headers[:3])
	assert.Equal(t, "cas_mal", table.Headers[19])

	records := table.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "23001", records[0][0])
	assert.Equal(t, "8", records[0][11], "int_tot")
	assert.Equal(t, "2.5", records[1][12], "pob_alo")

	values := table.Values()
	assert.Equal(t, 8.0, values[0][11])
}

func TestCSVWriter_Write(t *testing.T) {
	tests := []struct {
		name    string
		options WriteOptions
		wantBOM bool
	}{
		{name: "default", options: DefaultWriteOptions(), wantBOM: true},
		{name: "no BOM", options: WriteOptions{Comma: Separator}, wantBOM: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewCSVWriter("").Write(&buf, NewTable(testRows()), tt.options))

			data := buf.Bytes()
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(data, utf8BOM))
			data = bytes.TrimPrefix(data, utf8BOM)

			r := csv.NewReader(bytes.NewReader(data))
			r.Comma = ';'
			records, err := r.ReadAll()
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, "MONTERÍA", records[1][1])
			assert.Equal(t, "CERETÉ; SUR", records[2][1], "separator inside a name is quoted")
		})
	}
}

func TestCSVWriter_WriteFile(t *testing.T) {
	dir := t.TempDir()

	path, err := NewCSVWriter(dir).WriteFile(filepath.Join("nested", "totales.csv"), NewTable(testRows()))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "totales.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "clave;municipio;int_loc")

	abs := filepath.Join(t.TempDir(), "abs.csv")
	path, err = NewCSVWriter(dir).WriteFile(abs, NewTable(nil))
	require.NoError(t, err)
	assert.Equal(t, abs, path)
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []Format
		wantErr bool
	}{
		{in: "csv", want: []Format{FormatCSV}},
		{in: "CSV, xlsx,csv", want: []Format{FormatCSV, FormatXLSX}},
		{in: "all", want: []Format{FormatCSV, FormatXLSX, FormatGeoJSON}},
		{in: "pdf", wantErr: true},
		{in: " ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormats(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_ContentType(t *testing.T) {
	assert.Equal(t, "application/geo+json", FormatGeoJSON.ContentType())
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
	assert.Equal(t, ".csv", FormatCSV.Extension())
}
