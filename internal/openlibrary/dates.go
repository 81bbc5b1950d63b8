package openlibrary

import (
	"strconv"
	"strings"
	"time"
)

var monthsByName = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// ParsePublishDate handles the formats the Books API returns: ISO dates,
// bare years ("2005"), "March 2005", and "March 21, 2005". Unparseable
// values yield nil.
func ParsePublishDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t
	}

	if len(value) == 4 {
		if year, err := strconv.Atoi(value); err == nil {
			t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
			return &t
		}
	}

	parts := strings.Fields(strings.ReplaceAll(strings.ToLower(value), ",", ""))
	if len(parts) < 2 {
		return nil
	}
	month, ok := monthsByName[parts[0]]
	if !ok {
		return nil
	}

	switch len(parts) {
	case 2:
		year, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil
		}
		t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		return &t
	case 3:
		day, dayErr := strconv.Atoi(parts[1])
		year, yearErr := strconv.Atoi(parts[2])
		if dayErr != nil || yearErr != nil || day < 1 || day > 31 {
			return nil
		}
		t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return nil
}
