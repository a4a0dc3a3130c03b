// Package tabular decodes uploaded CSV and XLSX files into core rows.
//
// The first non-blank row of a file is its header. Header strings are kept
// as written (trimmed); blank headers become "column_N" and repeated headers
// get a numeric suffix so every column name is unique within a row.
package tabular

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/cohort/internal/core"
)

// Format identifies a supported file encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXLSX
	FormatLegacyXLS // recognized only to be rejected
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	case FormatLegacyXLS:
		return "xls"
	default:
		return "unknown"
	}
}

// DefaultMaxBytes caps a single upload.
const DefaultMaxBytes = 50 << 20

// ctxCheckInterval is how many rows are decoded between context checks.
const ctxCheckInterval = 1000

// zipMagic prefixes every XLSX (OOXML) file.
var zipMagic = []byte("PK\x03\x04")

// oleMagic prefixes OLE2 compound files, which is how .xls (BIFF) workbooks
// are stored.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// DetectFormat picks the format from the file extension.
func DetectFormat(fileName string) Format {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".xls":
		return FormatLegacyXLS
	default:
		return FormatUnknown
	}
}

// Reader implements core.RowReader for CSV and XLSX input.
type Reader struct {
	// MaxBytes rejects larger inputs with core.ErrFileTooLarge. Zero means
	// DefaultMaxBytes.
	MaxBytes int64
}

// NewReader returns a Reader with the given size cap.
func NewReader(maxBytes int64) *Reader {
	return &Reader{MaxBytes: maxBytes}
}

// ReadRows decodes r according to the extension of fileName. Files with an
// unknown extension are sniffed: a zip header means XLSX, anything else is
// rejected.
func (rd *Reader) ReadRows(ctx context.Context, fileName string, r io.Reader) ([]core.RawRow, error) {
	data, err := rd.readAll(r)
	if err != nil {
		return nil, err
	}

	format := DetectFormat(fileName)
	switch {
	case bytes.HasPrefix(data, oleMagic):
		format = FormatLegacyXLS
	case format == FormatUnknown && bytes.HasPrefix(data, zipMagic):
		format = FormatXLSX
	}

	switch format {
	case FormatCSV:
		return readCSV(ctx, bytes.NewReader(data))
	case FormatXLSX:
		return readXLSX(ctx, bytes.NewReader(data))
	case FormatLegacyXLS:
		return nil, fmt.Errorf("%w: %w", core.ErrUnsupportedFormat, core.ErrLegacyWorkbook)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

func (rd *Reader) readAll(r io.Reader) ([]byte, error) {
	limit := rd.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, limit)
	}
	return data, nil
}

// headerNames makes raw header strings unique and non-empty.
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		name := cleanCell(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if seen[name] {
			base := name
			for n := 1; seen[name]; n++ {
				name = base + "_" + strconv.Itoa(n)
			}
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

// buildRows turns decoded records into RawRows keyed by header. Records
// wider than the header are truncated; shorter ones leave trailing columns
// Empty.
func buildRows(header []string, records [][]core.Cell) []core.RawRow {
	rows := make([]core.RawRow, 0, len(records))
	for _, rec := range records {
		if blankRecord(rec) {
			continue
		}
		if len(rec) > len(header) {
			rec = rec[:len(header)]
		}
		rows = append(rows, core.NewRawRow(header, rec))
	}
	return rows
}

func blankRecord(rec []core.Cell) bool {
	for _, c := range rec {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// cleanCell removes spreadsheet artifacts from a text value: surrounding
// whitespace, the ="..." formula guard and wrapping quotes. Invalid UTF-8
// is replaced with U+FFFD.
func cleanCell(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// textCell classifies a cleaned string as Empty or Text.
func textCell(s string) core.Cell {
	s = cleanCell(s)
	if s == "" {
		return core.EmptyCell()
	}
	return core.TextCell(s)
}
