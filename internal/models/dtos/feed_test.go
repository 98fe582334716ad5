package dtos

import (
	"encoding/json"
	"testing"
)

func TestFlexInt(t *testing.T) {
	cases := []struct {
		raw  string
		want FlexInt
	}{
		{`42`, 42},
		{`"42"`, 42},
		{`"36000"`, 36000},
		{`41.7`, 42},
		{`""`, 0},
		{`null`, 0},
	}

	for _, tc := range cases {
		var fi FlexInt
		if err := json.Unmarshal([]byte(tc.raw), &fi); err != nil {
			t.Errorf("unmarshal %s: %v", tc.raw, err)
			continue
		}
		if fi != tc.want {
			t.Errorf("unmarshal %s = %d, want %d", tc.raw, fi, tc.want)
		}
	}

	var fi FlexInt
	if err := json.Unmarshal([]byte(`"abc"`), &fi); err == nil {
		t.Errorf("expected error for non-numeric string")
	}
}

func TestFrequencyHz(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"124.500", 124500000},
		{"118.000", 118000000},
		{"124.505", 124505000},
		{" 121.9 ", 121900000},
	}

	for _, tc := range cases {
		got, err := FrequencyHz(tc.raw)
		if err != nil {
			t.Errorf("FrequencyHz(%q): %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("FrequencyHz(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}

	if _, err := FrequencyHz("tower"); err == nil {
		t.Errorf("expected error for non-numeric frequency")
	}
}
