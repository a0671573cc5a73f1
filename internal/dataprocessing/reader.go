package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/larrynino/spatial-public-health/internal/errors"
)

// Delimiter separates fields in the intervention file
const Delimiter = ';'

// Supported input encodings
const (
	EncodingLatin1      = "latin1"
	EncodingWindows1252 = "windows1252"
	EncodingUTF8        = "utf8"
)

// RawTable is a parsed delimited file before any cleaning
type RawTable struct {
	Path   string
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the position of a header, matched case-insensitively
func (t *RawTable) ColumnIndex(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.Header {
		if strings.ToLower(h) == name {
			return i
		}
	}
	return -1
}

// ReadTable reads and parses the intervention file at path
func ReadTable(path, enc string) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataSourceError("cannot open dataset", err).
			WithContext("path", path)
	}
	defer f.Close()

	table, err := DecodeTable(f, enc)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			appErr.WithContext("path", path)
		}
		return nil, err
	}
	table.Path = path
	return table, nil
}

// DecodeTable parses a `;`-separated table from r in the given encoding.
// The field count of the header is enforced on every row.
func DecodeTable(r io.Reader, enc string) (*RawTable, error) {
	dec, err := decoderFor(enc)
	if err != nil {
		return nil, err
	}

	var src io.Reader
	if dec == nil {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.NewDataSourceError("cannot read dataset", err)
		}
		if !utf8.Valid(data) {
			return nil, errors.NewDataSourceError("dataset is not valid UTF-8", nil)
		}
		src = bytes.NewReader(data)
	} else {
		src = transform.NewReader(r, dec)
	}

	reader := csv.NewReader(bufio.NewReader(src))
	reader.Comma = Delimiter
	reader.FieldsPerRecord = 0
	reader.TrimLeadingSpace = true
	// stray quotes inside a cell are kept as text
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewDataSourceError("dataset is empty", nil)
	}
	if err != nil {
		return nil, errors.NewDataSourceError("cannot parse dataset header", err)
	}

	table := &RawTable{Header: cleanHeader(header)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewDataSourceError("malformed dataset row", err)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// decoderFor returns nil for UTF-8 input
func decoderFor(enc string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.ReplaceAll(enc, "-", "")) {
	case "", EncodingLatin1, "iso88591":
		return charmap.ISO8859_1.NewDecoder(), nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	case EncodingUTF8:
		return nil, nil
	default:
		return nil, errors.NewDataSourceError(fmt.Sprintf("unsupported encoding %q", enc), nil)
	}
}

// cleanHeader trims names and drops a byte order mark, whether it was
// decoded as UTF-8 or as three Latin-1 characters
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
			h = strings.TrimPrefix(h, "\u00ef\u00bb\u00bf")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}
