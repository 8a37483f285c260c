package util

import "testing"

func TestCoalesce(t *testing.T) {
	for _, tt := range []struct {
		name   string
		values []string
		want   string
	}{
		{"first wins", []string{"override", "default"}, "override"},
		{"skips zero", []string{"", "default"}, "default"},
		{"all zero", []string{"", ""}, ""},
		{"no values", nil, ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := Coalesce(tt.values...); got != tt.want {
				t.Errorf("Coalesce(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}

	if got := Coalesce(0, 0, 8); got != 8 {
		t.Errorf("Coalesce(0, 0, 8) = %d, want 8", got)
	}
}

func TestContains(t *testing.T) {
	levels := []string{"debug", "info", "warn"}
	if !Contains(levels, "info") {
		t.Error("Contains(levels, info) = false, want true")
	}
	if Contains(levels, "trace") {
		t.Error("Contains(levels, trace) = true, want false")
	}
	if Contains(nil, "anything") {
		t.Error("Contains(nil, anything) = true, want false")
	}
}
