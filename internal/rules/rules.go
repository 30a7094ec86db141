// Package rules implements the declarative field-validation engine.
// A Schema maps field names to ordered constraint lists; one engine
// interprets every entity's schema instead of one request class per
// endpoint. Validation is pure over the supplied uniqueness checker
// and clock, so the same input always yields the same outcome.
package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode selects full-schema (create) or partial (update) evaluation.
// In update mode, fields absent from the payload are left untouched and
// their persisted values are consulted by cross-field constraints.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

// Payload is an untyped submitted document. Keys may be addressed with
// dotted paths into nested maps, e.g. "metadata.ad_days".
type Payload map[string]any

// Get resolves a possibly dotted path. The second return reports
// whether the key exists at all, distinguishing "absent" from "nil".
func (p Payload) Get(path string) (any, bool) {
	cur := any(p)
	parts := strings.Split(path, ".")
	for i, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			if pm, isPayload := cur.(Payload); isPayload {
				m = map[string]any(pm)
			} else {
				return nil, false
			}
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		cur = v
	}
	return nil, false
}

// Set writes a possibly dotted path, creating intermediate maps.
func (p Payload) Set(path string, value any) {
	parts := strings.Split(path, ".")
	m := map[string]any(p)
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// ValidationError carries field-scoped messages. Only the first failing
// constraint per field is reported; callers depend on exactly one
// message per field.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// UniquenessChecker looks up whether a value collides with another
// persisted record. Scope names the table/column pair ("coupon.code",
// "content.slug"); ignoreID excludes the record being updated.
type UniquenessChecker interface {
	IsUnique(ctx context.Context, scope string, value string, workspaceID, ignoreID uuid.UUID) (bool, error)
}

// Input is one validation request.
type Input struct {
	Mode        Mode
	Payload     Payload
	Existing    Payload // persisted values, consulted in update mode
	WorkspaceID uuid.UUID
	IgnoreID    uuid.UUID
}

// effective returns the submitted value for a field, falling back to
// the persisted value in update mode.
func (in Input) effective(field string) (any, bool) {
	if v, ok := in.Payload.Get(field); ok {
		return v, true
	}
	if in.Mode == ModeUpdate && in.Existing != nil {
		return in.Existing.Get(field)
	}
	return nil, false
}

// Field pairs a field name with its ordered constraints.
type Field struct {
	Name        string
	Constraints []Constraint
}

// Schema is an ordered list of field rules. Order matters only for
// deterministic evaluation; each field fails independently.
type Schema []Field

type constraintKind int

const (
	kindRequired constraintKind = iota
	kindRequiredIf
	kindNullable
	kindString
	kindNumeric
	kindDate
	kindDateAfter
	kindEnum
	kindArray
	kindEach
	kindUnique
	kindFile
)

// Constraint is one declarative field rule. Constraints are plain data;
// the engine interprets them in a fixed class order regardless of how
// the schema lists them: presence, then type, then semantic, then
// per-element checks.
type Constraint struct {
	kind     constraintKind
	other    string
	values   []string
	maxLen   int
	min      float64
	max      float64
	sub      *Constraint
	scope    string
	fileKind string
	maxBytes int64
	mimes    []string
}

// Required fails when the field is absent, nil or an empty string.
func Required() Constraint { return Constraint{kind: kindRequired} }

// RequiredIf makes the field required when another field's submitted
// (or, on update, persisted) value is one of the given values.
func RequiredIf(other string, values ...string) Constraint {
	return Constraint{kind: kindRequiredIf, other: other, values: values}
}

// Nullable permits an explicit null, skipping later constraints.
func Nullable() Constraint { return Constraint{kind: kindNullable} }

// String requires a string value no longer than maxLen.
func String(maxLen int) Constraint { return Constraint{kind: kindString, maxLen: maxLen} }

// Numeric requires a number within [min, max].
func Numeric(min, max float64) Constraint { return Constraint{kind: kindNumeric, min: min, max: max} }

// Date requires a parseable date (YYYY-MM-DD or RFC 3339).
func Date() Constraint { return Constraint{kind: kindDate} }

// DateAfter requires this date to be strictly after another field's.
// Equal dates fail. Skipped unless both values are present.
func DateAfter(other string) Constraint { return Constraint{kind: kindDateAfter, other: other} }

// Enum requires the value to be one of the allowed strings.
func Enum(values ...string) Constraint { return Constraint{kind: kindEnum, values: values} }

// Array requires a JSON array value.
func Array() Constraint { return Constraint{kind: kindArray} }

// Each applies a constraint to every element of an array value.
func Each(c Constraint) Constraint { return Constraint{kind: kindEach, sub: &c} }

// Unique fails when another persisted record in scope holds the same
// value. The record under update is excluded via Input.IgnoreID.
func Unique(scope string) Constraint { return Constraint{kind: kindUnique, scope: scope} }

// File requires an upload descriptor {name,size,mime} within the given
// size and MIME-type limits.
func File(fileKind string, maxBytes int64, mimes ...string) Constraint {
	return Constraint{kind: kindFile, fileKind: fileKind, maxBytes: maxBytes, mimes: mimes}
}

// Validator interprets schemas against payloads.
type Validator struct {
	unique UniquenessChecker
	now    func() time.Time
}

// NewValidator creates a validator. The clock is injectable for
// deterministic tests; pass nil for time.Now.
func NewValidator(unique UniquenessChecker, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{unique: unique, now: now}
}

// Validate evaluates the schema. It returns a *ValidationError when any
// field fails, nil when all pass, or an infrastructure error from the
// uniqueness checker. It never partially applies anything.
func (v *Validator) Validate(ctx context.Context, schema Schema, in Input) error {
	fields := map[string]string{}
	for _, f := range schema {
		msg, err := v.checkField(ctx, f, in)
		if err != nil {
			return err
		}
		if msg != "" {
			fields[f.Name] = msg
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (v *Validator) checkField(ctx context.Context, f Field, in Input) (string, error) {
	value, present := in.Payload.Get(f.Name)

	var presence, types, semantic, elements []Constraint
	nullable := false
	for _, c := range f.Constraints {
		switch c.kind {
		case kindRequired, kindRequiredIf:
			presence = append(presence, c)
		case kindNullable:
			nullable = true
		case kindString, kindNumeric, kindDate, kindArray, kindFile:
			types = append(types, c)
		case kindEnum, kindDateAfter, kindUnique:
			semantic = append(semantic, c)
		case kindEach:
			elements = append(elements, c)
		}
	}

	missing := !present || value == nil || value == ""
	if missing {
		if present && value == nil && nullable {
			// Explicit null clears the field.
			return "", nil
		}
		for _, c := range presence {
			switch c.kind {
			case kindRequired:
				if in.Mode == ModeUpdate && !present {
					// Absent fields are untouched on update.
					continue
				}
				return "required", nil
			case kindRequiredIf:
				other, _ := in.effective(c.other)
				if matchesAny(other, c.values) {
					if in.Mode == ModeUpdate && !present {
						// A persisted value satisfies the condition.
						if ev, ok := in.Existing.Get(f.Name); ok && ev != nil && ev != "" {
							continue
						}
					}
					return "required", nil
				}
			}
		}
		return "", nil
	}

	for _, c := range types {
		if msg := v.checkType(c, value); msg != "" {
			return msg, nil
		}
	}
	for _, c := range semantic {
		msg, err := v.checkSemantic(ctx, c, value, in)
		if err != nil || msg != "" {
			return msg, err
		}
	}
	for _, c := range elements {
		arr, ok := value.([]any)
		if !ok {
			return "must be an array", nil
		}
		for _, el := range arr {
			if msg := v.checkType(*c.sub, el); msg != "" {
				return msg, nil
			}
			msg, err := v.checkSemantic(ctx, *c.sub, el, in)
			if err != nil || msg != "" {
				return msg, err
			}
		}
	}
	return "", nil
}

func (v *Validator) checkType(c Constraint, value any) string {
	switch c.kind {
	case kindString:
		s, ok := value.(string)
		if !ok {
			return "must be a string"
		}
		if c.maxLen > 0 && len(s) > c.maxLen {
			return fmt.Sprintf("must be at most %d characters", c.maxLen)
		}
	case kindNumeric:
		n, ok := asNumber(value)
		if !ok {
			return "must be a number"
		}
		if n < c.min {
			return fmt.Sprintf("must be at least %s", formatNumber(c.min))
		}
		if c.max > c.min && n > c.max {
			return fmt.Sprintf("must be at most %s", formatNumber(c.max))
		}
	case kindDate:
		if _, ok := asDate(value); !ok {
			return "must be a date"
		}
	case kindArray:
		if _, ok := value.([]any); !ok {
			return "must be an array"
		}
	case kindFile:
		return checkFile(c, value)
	}
	return ""
}

func (v *Validator) checkSemantic(ctx context.Context, c Constraint, value any, in Input) (string, error) {
	switch c.kind {
	case kindEnum:
		s, ok := asString(value)
		if !ok || !contains(c.values, s) {
			return "must be one of: " + strings.Join(c.values, ", "), nil
		}
	case kindDateAfter:
		this, ok := asDate(value)
		if !ok {
			return "must be a date", nil
		}
		otherRaw, present := in.effective(c.other)
		if !present || otherRaw == nil || otherRaw == "" {
			return "", nil
		}
		other, ok := asDate(otherRaw)
		if !ok {
			return "", nil
		}
		if !this.After(other) {
			return "must be after " + c.other, nil
		}
	case kindUnique:
		if v.unique == nil {
			return "", nil
		}
		s, ok := asString(value)
		if !ok || s == "" {
			return "", nil
		}
		unique, err := v.unique.IsUnique(ctx, c.scope, normalize(s), in.WorkspaceID, in.IgnoreID)
		if err != nil {
			return "", fmt.Errorf("uniqueness check failed for %s: %w", c.scope, err)
		}
		if !unique {
			return "already taken", nil
		}
	}
	return "", nil
}

func checkFile(c Constraint, value any) string {
	m, ok := value.(map[string]any)
	if !ok {
		return "must be a file"
	}
	size, _ := asNumber(m["size"])
	if c.maxBytes > 0 && int64(size) > c.maxBytes {
		return fmt.Sprintf("%s must be at most %d bytes", c.fileKind, c.maxBytes)
	}
	mime, _ := m["mime"].(string)
	if len(c.mimes) > 0 && !contains(c.mimes, mime) {
		return "unsupported " + c.fileKind + " type"
	}
	return ""
}

func matchesAny(value any, values []string) bool {
	s, ok := asString(value)
	if !ok {
		return false
	}
	return contains(values, s)
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func asString(value any) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

func asDate(value any) (time.Time, bool) {
	switch d := value.(type) {
	case time.Time:
		return d, true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// normalize lowercases and trims a value before a uniqueness lookup so
// "SPRING10" and "spring10" collide.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
