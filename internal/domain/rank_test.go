package domain

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseRank(t *testing.T) {
	tests := []struct {
		in      string
		want    Rank
		wantErr bool
	}{
		{"3", "3", false},
		{"03", "3", false},
		{"+2", "2", false},
		{" 1 ", "1", false},
		{"-1", "-1", false},
		{"good", "good", false},
		{"", NoRank, true},
		{"   ", NoRank, true},
		{"a b", NoRank, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRank(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRank(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRank(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRank_UnmarshalYAML(t *testing.T) {
	var ranks map[string]Rank
	if err := yaml.Unmarshal([]byte("a: 1\nb: '02'\nc: star\n"), &ranks); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := map[string]Rank{"a": "1", "b": "2", "c": "star"}
	for k, v := range want {
		if ranks[k] != v {
			t.Errorf("ranks[%s] = %q, want %q", k, ranks[k], v)
		}
	}

	if err := yaml.Unmarshal([]byte("a: [1, 2]\n"), &ranks); err == nil {
		t.Error("sequence rank should be rejected")
	}
}

func TestRankScale(t *testing.T) {
	scale := NewRankScale("10", "2", "0", "1")

	if !scale.Contains("2") {
		t.Error("scale should contain 2")
	}
	if scale.Contains("5") {
		t.Error("scale should not contain 5")
	}
	if scale.Contains(NoRank) {
		t.Error("scale should never contain the empty rank")
	}

	got := scale.Sorted()
	want := []Rank{"0", "1", "2", "10"}
	if len(got) != len(want) {
		t.Fatalf("Sorted() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sorted()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	labels := NewRankScale("good", "bad", "1").Sorted()
	if labels[0] != "1" || labels[1] != "bad" || labels[2] != "good" {
		t.Errorf("Sorted() = %v, want lexicographic order", labels)
	}
}

func TestFold(t *testing.T) {
	entries := []RankLogEntry{
		{Filename: "a.jpg", Rank: "1"},
		{Filename: "b.jpg", Rank: "2"},
		{Filename: "a.jpg", Rank: "3"},
		{Filename: "b.jpg"},
	}
	got := Fold(entries)
	if len(got) != 2 {
		t.Fatalf("len(Fold()) = %d, want 2", len(got))
	}
	if got["a.jpg"].Rank != "3" {
		t.Errorf("a.jpg = %v, want 3", got["a.jpg"].Rank)
	}
	if !got["b.jpg"].Rank.IsZero() {
		t.Errorf("b.jpg = %v, want cleared", got["b.jpg"].Rank)
	}
}
