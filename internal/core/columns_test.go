package core

import "testing"

func TestResolveColumns(t *testing.T) {
	wide := make([]string, 25)
	for i := range wide {
		wide[i] = "c"
	}
	wide[LegacyStartIndex] = "Start"
	wide[LegacyCancelIndex] = "End"

	tests := []struct {
		name       string
		columns    []string
		wantStart  Resolution
		wantCancel Resolution
	}{
		{
			name:       "by name, case insensitive",
			columns:    []string{"Cliente", "Plano INICIOU em", "Plano Cancelou Em"},
			wantStart:  Resolution{Column: "Plano INICIOU em", Index: 1, Method: ResolvedByName},
			wantCancel: Resolution{Column: "Plano Cancelou Em", Index: 2, Method: ResolvedByName},
		},
		{
			name:       "first match wins",
			columns:    []string{"iniciou A", "iniciou B"},
			wantStart:  Resolution{Column: "iniciou A", Index: 0, Method: ResolvedByName},
			wantCancel: Resolution{Index: -1, Method: Unresolved},
		},
		{
			name:       "positional fallback",
			columns:    wide,
			wantStart:  Resolution{Column: "Start", Index: LegacyStartIndex, Method: ResolvedByPosition},
			wantCancel: Resolution{Column: "End", Index: LegacyCancelIndex, Method: ResolvedByPosition},
		},
		{
			name:       "too short",
			columns:    []string{"a", "b"},
			wantStart:  Resolution{Index: -1, Method: Unresolved},
			wantCancel: Resolution{Index: -1, Method: Unresolved},
		},
		{
			name:       "no header",
			columns:    nil,
			wantStart:  Resolution{Index: -1, Method: Unresolved},
			wantCancel: Resolution{Index: -1, Method: Unresolved},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, cancel := ResolveColumns(tt.columns, ColumnMarkers{})
			if start != tt.wantStart {
				t.Errorf("start = %+v, want %+v", start, tt.wantStart)
			}
			if cancel != tt.wantCancel {
				t.Errorf("cancel = %+v, want %+v", cancel, tt.wantCancel)
			}
		})
	}
}

func TestResolution_LookupUnresolved(t *testing.T) {
	row := NewRawRow([]string{"a"}, []Cell{TextCell("x")})
	if c := (Resolution{Index: -1}).lookup(row); !c.IsEmpty() {
		t.Errorf("lookup() = %+v, want empty", c)
	}
}
