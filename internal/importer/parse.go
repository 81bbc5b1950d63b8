package importer

import (
	"strconv"
	"strings"
	"time"
)

// Cell parsing is deliberately tolerant: export files mix empty cells,
// float-formatted integers, and a few boolean spellings. Bad values fall
// back to zero values rather than failing the row.

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t
	}
	return nil
}

func parseInt(value string) int {
	if value == "" {
		return 0
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 {
		return int(f)
	}
	return 0
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes":
		return true
	}
	return false
}
