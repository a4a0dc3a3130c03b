package tabular

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/cohort/internal/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sniffBytes is how much of the file is inspected to pick a delimiter.
const sniffBytes = 64 << 10

// readCSV decodes a delimited text file. The delimiter is whichever of
// comma, semicolon or tab occurs most often in the header line; spreadsheets
// saved with a pt-BR locale use semicolons.
func readCSV(ctx context.Context, r io.Reader) ([]core.RawRow, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	if b, _ := br.Peek(len(utf8BOM)); bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	head, _ := br.Peek(sniffBytes)

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(head)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		header  []string
		records [][]core.Cell
	)
	for n := 0; ; n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}

		if header == nil {
			if blankStrings(rec) {
				continue
			}
			header = headerNames(rec)
			continue
		}

		cells := make([]core.Cell, len(rec))
		for i, v := range rec {
			cells[i] = textCell(v)
		}
		records = append(records, cells)
	}

	if header == nil {
		return nil, nil
	}
	return buildRows(header, records), nil
}

// sniffDelimiter counts candidate delimiters on the first line, ignoring
// quoted sections.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	counts := map[byte]int{',': 0, ';': 0, '\t': 0}
	quoted := false
	for _, b := range head {
		if b == '"' {
			quoted = !quoted
			continue
		}
		if quoted {
			continue
		}
		if _, ok := counts[b]; ok {
			counts[b]++
		}
	}

	best := byte(',')
	for _, d := range []byte{';', '\t'} {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return rune(best)
}

func blankStrings(rec []string) bool {
	for _, v := range rec {
		if cleanCell(v) != "" {
			return false
		}
	}
	return true
}
