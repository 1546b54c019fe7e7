package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date with no time component.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustParseDate is ParseDate that panics on error, for fixtures.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string { return d.t.Format(DateLayout) }

// Before reports whether d falls strictly before o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// Equal reports whether d and o are the same calendar day.
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// MarshalJSON encodes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DatePatch distinguishes the three states of an optional date in a
// partial update: absent (keep the stored value), explicit null (clear
// it), and an explicit value.
type DatePatch struct {
	present bool
	value   *Date
}

// KeepDate returns the absent patch: the stored value is preserved.
func KeepDate() DatePatch { return DatePatch{} }

// ClearDate returns the explicit-null patch: the stored value is removed.
func ClearDate() DatePatch { return DatePatch{present: true} }

// SetDate returns a patch carrying a concrete value.
func SetDate(d Date) DatePatch { return DatePatch{present: true, value: &d} }

// Apply resolves the final value the patch yields over an existing one.
func (p DatePatch) Apply(existing *Date) *Date {
	if !p.present {
		return existing
	}
	return p.value
}

// Value returns the concrete date carried by the patch, or nil.
func (p DatePatch) Value() *Date { return p.value }

// DateWriteMode selects how a stored date column changes.
type DateWriteMode int

const (
	// DateKeep leaves the column untouched.
	DateKeep DateWriteMode = iota
	// DateSet replaces the column with Value, clearing it when Value is nil.
	DateSet
	// DateCoalesce replaces the column only when Value is non-nil,
	// preserving the stored value otherwise.
	DateCoalesce
)

// DateWrite describes one date column in a partial store update.
type DateWrite struct {
	Mode  DateWriteMode
	Value *Date
}

// Overwrite converts the patch to a replacing write: absent keeps the
// column, explicit null clears it, a value replaces it.
func (p DatePatch) Overwrite() DateWrite {
	if !p.present {
		return DateWrite{Mode: DateKeep}
	}
	return DateWrite{Mode: DateSet, Value: p.value}
}

// Coalesce converts the patch to a coalescing write: the column is only
// ever replaced with a concrete value, never nulled.
func (p DatePatch) Coalesce() DateWrite {
	return DateWrite{Mode: DateCoalesce, Value: p.value}
}
