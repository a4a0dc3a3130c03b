package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// LastImportKey is the single persistence slot holding the most recent import.
const LastImportKey = "lastImport"

// Snapshot is the persisted form of an import: the raw rows exactly as read,
// so the matrix can be recomputed later against a fresh clock.
type Snapshot struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	ImportedAt time.Time `json:"timestamp"`
	Rows       []RawRow  `json:"content"`
}

type cellJSON struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

// MarshalJSON encodes the cell with an explicit type tag so dates and
// numbers survive a round trip through a JSON store.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(cellJSON{Type: "text", Value: c.Text})
	case CellNumeric:
		return json.Marshal(cellJSON{Type: "numeric", Value: c.Number})
	case CellDate:
		return json.Marshal(cellJSON{Type: "date", Value: c.Time.Format(time.RFC3339Nano)})
	default:
		return json.Marshal(cellJSON{Type: "empty"})
	}
}

// UnmarshalJSON decodes the tagged form written by MarshalJSON.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw.Value) == 0 {
		raw.Value = json.RawMessage("null")
	}

	switch raw.Type {
	case "text":
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("text cell: %w", err)
		}
		*c = TextCell(s)
	case "numeric":
		var f float64
		if err := json.Unmarshal(raw.Value, &f); err != nil {
			return fmt.Errorf("numeric cell: %w", err)
		}
		*c = NumericCell(f)
	case "date":
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("date cell: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("date cell: %w", err)
		}
		*c = DateCell(t)
	case "empty", "":
		*c = Cell{}
	default:
		return fmt.Errorf("unknown cell type %q", raw.Type)
	}
	return nil
}

type rowJSON struct {
	Columns []string `json:"columns"`
	Cells   []Cell   `json:"cells"`
}

// MarshalJSON writes the row as parallel column and cell arrays, keeping
// header order.
func (r RawRow) MarshalJSON() ([]byte, error) {
	out := rowJSON{Columns: r.Columns, Cells: make([]Cell, len(r.Columns))}
	for i, col := range r.Columns {
		out.Cells[i] = r.Get(col)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	var in rowJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = NewRawRow(in.Columns, in.Cells)
	return nil
}

// EncodeSnapshot serializes a snapshot for a byte-oriented store.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(b []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}
