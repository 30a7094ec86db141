package pipeline

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/rules"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a title: lowercased, non-alphanumeric
// runs collapsed to single hyphens. Deterministic, no I/O.
func Slugify(title string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// StringField returns a payload string value or "".
func StringField(p rules.Payload, name string) string {
	v, _ := p.Get(name)
	s, _ := v.(string)
	return s
}

// NumberField returns a payload numeric value or 0.
func NumberField(p rules.Payload, name string) float64 {
	v, _ := p.Get(name)
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// DateField parses a payload date value, or returns nil when absent.
func DateField(p rules.Payload, name string) *time.Time {
	v, ok := p.Get(name)
	if !ok || v == nil {
		return nil
	}
	switch d := v.(type) {
	case time.Time:
		return &d
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, d); err == nil {
				return &t
			}
		}
	}
	return nil
}

// UUIDField parses a payload uuid value, or uuid.Nil.
func UUIDField(p rules.Payload, name string) uuid.UUID {
	id, err := uuid.Parse(StringField(p, name))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// UUIDList parses a payload array of uuid strings. Unparseable entries
// are kept as uuid.Nil so the region resolver reports them as missing
// rather than silently dropping them.
func UUIDList(p rules.Payload, name string) []uuid.UUID {
	v, ok := p.Get(name)
	if !ok || v == nil {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(arr))
	for _, el := range arr {
		s, _ := el.(string)
		id, err := uuid.Parse(s)
		if err != nil {
			id = uuid.Nil
		}
		ids = append(ids, id)
	}
	return ids
}

// MetadataField returns the metadata sub-document, or nil.
func MetadataField(p rules.Payload, name string) map[string]any {
	v, _ := p.Get(name)
	m, _ := v.(map[string]any)
	return m
}
