package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecord_ID(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{"id", Record{"id": "abc"}, "abc"},
		{"doc_id", Record{"doc_id": "d-1"}, "d-1"},
		{"testcase_id", Record{"testcase_id": "tc-9"}, "tc-9"},
		{"numeric run_index", Record{"run_index": float64(3)}, "3"},
		{"missing", Record{"name": "x"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.ID())
		})
	}
}

func TestRecord_Numbers(t *testing.T) {
	r := Record{"total_tests": float64(5), "passed": "3", "bad": "n/a", "ratio": 0.5}

	assert.Equal(t, 5, r.Int("total_tests"))
	assert.Equal(t, 3, r.Int("passed"))
	assert.Equal(t, 0, r.Int("bad"))
	assert.Equal(t, 0, r.Int("missing"))
	assert.InDelta(t, 0.5, r.Float("ratio"), 1e-9)
}

func TestRecord_Records(t *testing.T) {
	r := Record{"test_cases": []any{
		map[string]any{"id": "a"},
		"not an object",
		map[string]any{"id": "b"},
	}}

	nested := r.Records("test_cases")
	if assert.Len(t, nested, 2) {
		assert.Equal(t, "a", nested[0].ID())
		assert.Equal(t, "b", nested[1].ID())
	}
	assert.Nil(t, r.Records("missing"))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2024-03-15T10:30:00Z", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"2024-03-15T10:30:00.123456", time.Date(2024, 3, 15, 10, 30, 0, 123456000, time.UTC), true},
		{"2024-03-15 10:30:00", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestProject_Key(t *testing.T) {
	var nilProject *Project
	assert.Equal(t, "", nilProject.Key())
	assert.Equal(t, "db-1", (&Project{ID: "db-1"}).Key())
	assert.Equal(t, "proj-1", (&Project{ID: "db-1", ProjectID: "proj-1"}).Key())
}
