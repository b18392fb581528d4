package project

import (
	"sort"
	"testing"
)

func TestDiffAssignments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		current     []string
		desired     []string
		wantAdded   []string
		wantRemoved []string
	}{
		{
			name:        "overlapping sets",
			current:     []string{"a", "b"},
			desired:     []string{"b", "c"},
			wantAdded:   []string{"c"},
			wantRemoved: []string{"a"},
		},
		{
			name:    "identical sets",
			current: []string{"a", "b"},
			desired: []string{"b", "a"},
		},
		{
			name:        "clear all",
			current:     []string{"a", "b"},
			desired:     nil,
			wantRemoved: []string{"a", "b"},
		},
		{
			name:      "assign from empty",
			current:   nil,
			desired:   []string{"a"},
			wantAdded: []string{"a"},
		},
		{
			name:    "both empty",
			current: nil,
			desired: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			added, removed := diffAssignments(tt.current, tt.desired)
			if !equalStringSets(added, tt.wantAdded) {
				t.Errorf("added = %v, want %v", added, tt.wantAdded)
			}
			if !equalStringSets(removed, tt.wantRemoved) {
				t.Errorf("removed = %v, want %v", removed, tt.wantRemoved)
			}
		})
	}
}

func equalStringSets(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	g := append([]string(nil), got...)
	w := append([]string(nil), want...)
	sort.Strings(g)
	sort.Strings(w)
	for i := range g {
		if g[i] != w[i] {
			return false
		}
	}
	return true
}
