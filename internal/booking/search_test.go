package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	lessons := []Lesson{
		{ID: 1, Subject: "Math", Location: "London", PriceCents: 10000, Spaces: 5},
		{ID: 2, Subject: "English", Location: "Bristol", PriceCents: 8000, Spaces: 0},
		{ID: 3, Subject: "Music", Location: "Cambridge", PriceCents: 10000, Spaces: 3},
	}

	ids := func(ls []Lesson) []int {
		out := make([]int, 0, len(ls))
		for _, l := range ls {
			out = append(out, l.ID)
		}
		return out
	}

	cases := []struct {
		name  string
		query string
		want  []int
	}{
		{"empty query returns everything", "", []int{1, 2, 3}},
		{"substring on subject", "mat", []int{1}},
		{"case-insensitive", "LONDON", []int{1}},
		{"substring on location", "bri", []int{2}},
		{"regex over text fields", "^Mu.*c$", []int{3}},
		{"regex alternation", "Math|English", []int{1, 2}},
		{"numeric exact spaces", "5", []int{1}},
		{"numeric exact price cents", "8000", []int{2}},
		{"numeric whole currency units", "100", []int{1, 3}},
		{"no match", "zzz", []int{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Filter(lessons, tc.query)))
		})
	}
}

func TestFilter_InvalidRegexFallsBackToSubstring(t *testing.T) {
	lessons := []Lesson{
		{ID: 1, Subject: "C++ (beginner", Location: "Leeds"},
	}
	// "(beginner" bukan regex valid; substring match tetap jalan
	got := Filter(lessons, "(beginner")
	assert.Len(t, got, 1)
}
