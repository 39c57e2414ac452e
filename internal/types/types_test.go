package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellIsBlank(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want bool
	}{
		{"blank", Blank(), true},
		{"empty text", Text(""), true},
		{"whitespace text", Text("  \t "), true},
		{"text", Text("x"), false},
		{"zero", Number(0), false},
	}
	for _, tt := range tests {
		if got := tt.cell.IsBlank(); got != tt.want {
			t.Errorf("%s: IsBlank() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCellDisplay(t *testing.T) {
	assert.Equal(t, "1/26/2026", Number(46048).Display())
	assert.Equal(t, "120.5", Number(120.5).Display())
	assert.Equal(t, "50000", Number(50000).Display())
	assert.Equal(t, "abc", Text("abc").Display())
	assert.Equal(t, "", Blank().Display())
}

func TestCellJSON(t *testing.T) {
	rec := Record{OriginalRowIndex: 3, Fields: map[string]Cell{
		"Qty":   Number(6),
		"Store": Text("S01"),
		"Note":  Blank(),
	}}
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 3, back.OriginalRowIndex)
	assert.True(t, back.Get("Qty").Equal(Number(6)))
	assert.True(t, back.Get("Store").Equal(Text("S01")))
	assert.True(t, back.Get("Note").IsBlank())
}

func TestRecordCloneIsDeep(t *testing.T) {
	rec := Record{Fields: map[string]Cell{"A": Text("1")}}
	cp := rec.Clone()
	cp.Set("A", Text("2"))
	assert.Equal(t, "1", rec.Get("A").String())
}

func TestSerialToTime(t *testing.T) {
	got := SerialToTime(46048.5)
	assert.Equal(t, "26/01/2026 12:00:00", got.Format("02/01/2006 15:04:05"))
}
