package dataprocessing

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

func newTestLoader() *Loader {
	return NewLoader(DefaultLoaderOptions(), slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func TestLoader_Load_CodedDataset(t *testing.T) {
	header := append([]string{"divipola", "mun", "int_tot", "pob_tot"}, rawHeader()...)
	mk := func(code, name string, values map[string]string) []string {
		return row([]string{code, name, "999", "-1"}, values)
	}

	path := writeLatin1CSV(t, header,
		mk("23001", "Montería", map[string]string{
			"int_aloj": "3", "int_aloviv": "2", "int_larv": "0", "int_iec": "1",
			"int_fum": "0", "int_tild": "5", "int_vac": "0", "int_loc": "4", "int_per": "9",
		}),
		mk("23", "Cereté", map[string]string{
			"pob_alo": "10", "pob_viv": "20", "pob_ben": "5", "cas_den": "N/D",
		}),
		mk("23001.0", "", map[string]string{"int_larv": "7", "cas_mal": "2"}),
	)

	ds, err := newTestLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.KeyModeCoded, ds.Mode)
	assert.Equal(t, path, ds.SourcePath)
	require.Equal(t, 3, ds.Len())

	first := ds.Records[0]
	assert.Equal(t, "23001", first.AreaCode)
	assert.Equal(t, "Montería", first.Name, "Latin-1 names are decoded")
	assert.Equal(t, 11.0, first.Counters.Get(domain.ColTotalInterventions), "source int_tot is ignored")
	assert.Equal(t, 4.0, first.Counters.Get(domain.ColLocalities))

	second := ds.Records[1]
	assert.Equal(t, "00023", second.AreaCode)
	assert.Equal(t, "Cereté", second.Name)
	assert.Equal(t, 30.0, second.Counters.Get(domain.ColPopImpacted))
	assert.Equal(t, 35.0, second.Counters.Get(domain.ColPopTotal))
	assert.Equal(t, 0.0, second.Counters.Get(domain.ColDengue), "N/D is normalized to zero")

	third := ds.Records[2]
	assert.Equal(t, "23001", third.AreaCode)
	assert.Equal(t, "0", third.Name, "blank names receive the blanket fill")

	assert.Equal(t, 1, ds.Quality.CoercedCells)
	assert.Greater(t, ds.Quality.FilledCells, 0)
	assert.Empty(t, ds.Quality.IgnoredColumns)
	assertCleanInvariants(t, ds)
}

func TestLoader_Load_NameOnlyDataset(t *testing.T) {
	header := append([]string{"MUN", "observaciones"}, rawHeader()...)
	path := writeLatin1CSV(t, header,
		row([]string{"Lorica", "ok"}, map[string]string{"int_fum": "4"}),
		row([]string{"San Antero", ""}, map[string]string{"int_iec": "x"}),
	)

	ds, err := newTestLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.KeyModeNameOnly, ds.Mode)
	assert.Empty(t, ds.Records[0].AreaCode)
	assert.Equal(t, "Lorica", ds.Records[0].Key(ds.Mode))
	assert.Equal(t, 4.0, ds.Records[0].Counters.Get(domain.ColTotalInterventions))
	assert.Equal(t, []string{"observaciones"}, ds.Quality.IgnoredColumns)
	assertCleanInvariants(t, ds)
}

func TestLoader_Load_HeaderOnly(t *testing.T) {
	path := writeLatin1CSV(t, append([]string{"divipola"}, rawHeader()...))

	ds, err := newTestLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Empty(t, Aggregate(ds))
}

func TestLoader_Load_StrayQuotes(t *testing.T) {
	header := append([]string{"divipola", "mun"}, rawHeader()...)
	path := writeLatin1CSV(t, header,
		row([]string{"23001", `Montería "centro"`}, map[string]string{"int_fum": "2"}),
		row([]string{"23686", `"San Pelayo"`}, map[string]string{"int_iec": `1"`}),
	)

	ds, err := newTestLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	assert.Equal(t, `Montería "centro"`, ds.Records[0].Name)
	assert.Equal(t, 2.0, ds.Records[0].Counters.Get(domain.ColTotalInterventions))
	assert.Equal(t, "San Pelayo", ds.Records[1].Name)
	assert.Equal(t, 0.0, ds.Records[1].Counters.Get(domain.ColIEC), "quoted garbage is normalized to zero")
	assertCleanInvariants(t, ds)
}

func TestLoader_Load_DataSourceErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	fullHeader := "divipola;" + strings.Join(rawHeader(), ";")

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "absent.csv")},
		{"empty file", write("empty.csv", "")},
		{"ragged row", write("ragged.csv", fullHeader+"\n23001;1;2\n")},
		{"missing raw column", write("missing.csv", "divipola;int_loc\n23001;1\n")},
		{"no key column", write("nokey.csv", strings.Join(rawHeader(), ";")+"\n")},
		{"directory", dir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := newTestLoader().Load(context.Background(), tt.path)
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.True(t, errors.IsDataSourceError(err), "got %v", err)
		})
	}
}

func TestLoader_MissingColumnsContext(t *testing.T) {
	raw := &RawTable{Header: []string{"divipola", "int_loc", "int_aloj"}}

	_, err := newTestLoader().Clean(raw)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	missing, ok := appErr.Context["missing"].([]string)
	require.True(t, ok)
	assert.Contains(t, missing, "cas_mal")
	assert.NotContains(t, missing, "int_tot", "derived columns are optional")
}

func TestLoader_CustomFields(t *testing.T) {
	loader := NewLoader(LoaderOptions{AreaCodeField: "cod_mpio", NameField: "municipio"}, nil)
	raw := &RawTable{
		Header: append([]string{"COD_MPIO", "Municipio"}, rawHeader()...),
		Rows:   [][]string{row([]string{"8001", "Barranquilla"}, map[string]string{"int_vac": "2"})},
	}

	ds, err := loader.Clean(raw)
	require.NoError(t, err)
	assert.Equal(t, "08001", ds.Records[0].AreaCode)
	assert.Equal(t, "Barranquilla", ds.Records[0].Name)
}

func TestLoader_CanceledContext(t *testing.T) {
	path := writeLatin1CSV(t, append([]string{"divipola"}, rawHeader()...))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestLoader().Load(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeTable_Encodings(t *testing.T) {
	t.Run("utf8 with BOM", func(t *testing.T) {
		table, err := DecodeTable(strings.NewReader("\ufeffdivipola;mun\n23001;Montería\n"), EncodingUTF8)
		require.NoError(t, err)
		assert.Equal(t, []string{"divipola", "mun"}, table.Header)
		assert.Equal(t, "Montería", table.Rows[0][1])
	})

	t.Run("utf8 BOM read as latin1", func(t *testing.T) {
		table, err := DecodeTable(strings.NewReader("\xef\xbb\xbfdivipola;mun\n"), EncodingLatin1)
		require.NoError(t, err)
		assert.Equal(t, 0, table.ColumnIndex("divipola"))
	})

	t.Run("invalid utf8", func(t *testing.T) {
		_, err := DecodeTable(strings.NewReader("mun\nMonter\xeda\n"), EncodingUTF8)
		assert.True(t, errors.IsDataSourceError(err))
	})

	t.Run("windows-1252", func(t *testing.T) {
		table, err := DecodeTable(strings.NewReader("mun\nCi\xe9naga\x96Oro\n"), "windows-1252")
		require.NoError(t, err)
		assert.Equal(t, "Ciénaga–Oro", table.Rows[0][0])
	})

	t.Run("unknown encoding", func(t *testing.T) {
		_, err := DecodeTable(strings.NewReader("mun\n"), "ebcdic")
		assert.True(t, errors.IsDataSourceError(err))
	})
}
