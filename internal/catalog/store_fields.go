package catalog

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var updatableFields = map[string]struct{}{
	"book_id":          {},
	"title":            {},
	"subtitle":         {},
	"bookshelf":        {},
	"date_added":       {},
	"wishlist":         {},
	"read":             {},
	"pages_read":       {},
	"number_of_copies": {},
	"signed":           {},
	"authors":          {},
	"language":         {},
	"published_at":     {},
	"publisher":        {},
	"page_count":       {},
	"description":      {},
	"categories":       {},
	"format":           {},
	"series":           {},
	"volume":           {},
	"editors":          {},
	"translators":      {},
	"illustrators":     {},
	"verified":         {},
	"last_verified":    {},
}

var dateFields = map[string]struct{}{
	"date_added":    {},
	"published_at":  {},
	"last_verified": {},
}

var boolFields = map[string]struct{}{
	"wishlist": {},
	"read":     {},
	"signed":   {},
	"verified": {},
}

var intFields = map[string]struct{}{
	"pages_read":       {},
	"number_of_copies": {},
	"page_count":       {},
}

// CoerceField parses a raw string into the value UpdateFields expects for the
// named column. Unknown field names are rejected so callers can surface them
// before touching the database.
func CoerceField(name, raw string) (any, error) {
	if _, ok := updatableFields[name]; !ok {
		return nil, fmt.Errorf("invalid field %q", name)
	}
	if _, ok := dateFields[name]; ok {
		if raw == "" {
			return (*time.Time)(nil), nil
		}
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: expected YYYY-MM-DD date: %w", name, err)
		}
		return parsed, nil
	}
	if _, ok := boolFields[name]; ok {
		switch strings.ToLower(raw) {
		case "1", "true", "yes":
			return true, nil
		case "0", "false", "no", "":
			return false, nil
		}
		return nil, fmt.Errorf("field %s: expected boolean, got %q", name, raw)
	}
	if _, ok := intFields[name]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("field %s: expected integer, got %q", name, raw)
		}
		return n, nil
	}
	return raw, nil
}

// UpdateFields overwrites specific columns for the book with the given ISBN.
// Field names use the column spelling (snake_case). Date values accept
// time.Time or *time.Time and serialize to ISO format; bools become integers.
// Returns false when no row matched or updates was empty.
func (s *Store) UpdateFields(ctx context.Context, isbn string, updates map[string]any) (bool, error) {
	if len(updates) == 0 {
		return false, nil
	}
	ctx = ensureContext(ctx)

	names := make([]string, 0, len(updates))
	for name := range updates {
		if _, ok := updatableFields[name]; !ok {
			return false, fmt.Errorf("invalid field %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	setParts := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		setParts = append(setParts, name+" = ?")
		args = append(args, serializeFieldValue(name, updates[name]))
	}
	args = append(args, isbn)

	res, err := s.execWithRetry(
		ctx,
		`UPDATE books SET `+strings.Join(setParts, ", ")+` WHERE isbn = ?`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("update fields: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func serializeFieldValue(name string, value any) any {
	if _, ok := dateFields[name]; ok {
		switch v := value.(type) {
		case nil:
			return nil
		case time.Time:
			return v.Format(dateLayout)
		case *time.Time:
			return nullableDate(v)
		case string:
			return v
		}
		return value
	}
	if _, ok := boolFields[name]; ok {
		if b, isBool := value.(bool); isBool {
			return boolToInt(b)
		}
	}
	return value
}
