package booking

import (
	"regexp"
	"strconv"
	"strings"
)

// Filter adalah query facade: pure read, tidak pernah menyentuh mutation path.
// Match kalau query jadi substring (case-insensitive) atau regex valid atas
// subject/location; query numerik juga match exact ke spaces atau price
// (cents, atau whole currency units).
func Filter(lessons []Lesson, query string) []Lesson {
	q := strings.TrimSpace(query)
	if q == "" {
		return lessons
	}

	lower := strings.ToLower(q)
	re, reErr := regexp.Compile("(?i)" + q)

	num, numErr := strconv.Atoi(q)
	numeric := numErr == nil

	out := make([]Lesson, 0, len(lessons))
	for _, l := range lessons {
		if matchText(l.Subject, lower, re, reErr == nil) ||
			matchText(l.Location, lower, re, reErr == nil) {
			out = append(out, l)
			continue
		}
		if numeric && (l.Spaces == num || l.PriceCents == num || l.PriceCents == num*100) {
			out = append(out, l)
		}
	}
	return out
}

func matchText(field, lowerQ string, re *regexp.Regexp, haveRe bool) bool {
	if strings.Contains(strings.ToLower(field), lowerQ) {
		return true
	}
	return haveRe && re.MatchString(field)
}
