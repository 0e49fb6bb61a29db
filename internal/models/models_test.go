package models

import (
	"testing"

	"github.com/calebhs/linkhive/internal/types"
)

func TestUnionTagIds(t *testing.T) {
	tests := []struct {
		name     string
		existing []types.TagId
		incoming []types.TagId
		want     []types.TagId
	}{
		{
			name:     "disjoint sets append in order",
			existing: []types.TagId{1, 2},
			incoming: []types.TagId{3, 4},
			want:     []types.TagId{1, 2, 3, 4},
		},
		{
			name:     "overlap keeps existing position",
			existing: []types.TagId{1, 2, 3},
			incoming: []types.TagId{3, 4, 1},
			want:     []types.TagId{1, 2, 3, 4},
		},
		{
			name:     "empty incoming is a no-op",
			existing: []types.TagId{5, 6},
			incoming: nil,
			want:     []types.TagId{5, 6},
		},
		{
			name:     "empty existing takes incoming",
			existing: nil,
			incoming: []types.TagId{7},
			want:     []types.TagId{7},
		},
		{
			name:     "duplicates within inputs collapse",
			existing: []types.TagId{1, 1, 2},
			incoming: []types.TagId{2, 2, 3},
			want:     []types.TagId{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := unionTagIds(tt.existing, tt.incoming)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

// The merge result must never drop an id that was already attached.
func TestUnionTagIdsNeverNarrows(t *testing.T) {
	existing := []types.TagId{10, 20, 30}
	got := unionTagIds(existing, []types.TagId{99})

	have := make(map[types.TagId]bool, len(got))
	for _, id := range got {
		have[id] = true
	}
	for _, id := range existing {
		if !have[id] {
			t.Errorf("existing tag %d missing from union %v", id, got)
		}
	}
}

func TestBuildSearchDocument(t *testing.T) {
	tests := []struct {
		name                                    string
		title, description, summaryShort, sLong string
		wantA, wantB, wantC                     string
	}{
		{
			name:         "all fields",
			title:        "Go Concurrency",
			description:  "my note",
			summaryShort: "A short one.",
			sLong:        "A long one.",
			wantA:        "Go Concurrency",
			wantB:        "my note A short one.",
			wantC:        "A long one.",
		},
		{
			name:         "no description",
			title:        "T",
			summaryShort: "Short.",
			wantA:        "T",
			wantB:        "Short.",
		},
		{
			name:        "no summaries",
			title:       "T",
			description: "note",
			wantA:       "T",
			wantB:       "note",
		},
		{
			name:  "title only",
			title: "T",
			wantA: "T",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := BuildSearchDocument(tt.title, tt.description, tt.summaryShort, tt.sLong)
			if doc.TierA != tt.wantA || doc.TierB != tt.wantB || doc.TierC != tt.wantC {
				t.Errorf("got %+v, want A=%q B=%q C=%q", doc, tt.wantA, tt.wantB, tt.wantC)
			}
		})
	}
}
