package state

import (
	"strconv"
	"strings"

	"horae/internal/storydate"
)

// CalcCurrentAge projects a numeric age forward from the story date it was
// recorded at to currentDate. The stored age is returned unchanged whenever
// either date lacks a year, the age is not a plain number, or no full year
// has passed.
func CalcCurrentAge(rec NpcRecord, currentDate string) string {
	age, err := strconv.Atoi(strings.TrimSpace(rec.Age))
	if err != nil || rec.AgeRefDate == "" || currentDate == "" {
		return rec.Age
	}
	ref, ok := storydate.Parse(rec.AgeRefDate)
	if !ok || !ref.HasYear() {
		return rec.Age
	}
	cur, ok := storydate.Parse(currentDate)
	if !ok || !cur.HasYear() {
		return rec.Age
	}

	years := cur.Year - ref.Year
	if cur.Month < ref.Month || (cur.Month == ref.Month && cur.Day < ref.Day) {
		years--
	}
	if years <= 0 {
		return rec.Age
	}
	return strconv.Itoa(age + years)
}
