package interval

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDuration indicates a malformed duration value.
var ErrInvalidDuration = errors.New("invalid duration")

// Unit is the single calendar unit a Duration is expressed in.
type Unit string

const (
	UnitDays   Unit = "days"
	UnitMonths Unit = "months"
	UnitYears  Unit = "years"
)

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	switch u {
	case UnitDays, UnitMonths, UnitYears:
		return true
	}
	return false
}

// Duration is a span of calendar time in exactly one unit.
// The zero value means "no duration" and adds nothing.
type Duration struct {
	unit     Unit
	quantity int
}

// Days returns a day-based duration.
func Days(n int) Duration { return Duration{unit: UnitDays, quantity: n} }

// Months returns a month-based duration.
func Months(n int) Duration { return Duration{unit: UnitMonths, quantity: n} }

// Years returns a year-based duration.
func Years(n int) Duration { return Duration{unit: UnitYears, quantity: n} }

// New builds a duration from a stored unit and quantity.
func New(unit Unit, quantity int) (Duration, error) {
	if !unit.Valid() {
		return Duration{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidDuration, unit)
	}
	if quantity < 0 {
		return Duration{}, fmt.Errorf("%w: negative quantity %d", ErrInvalidDuration, quantity)
	}
	return Duration{unit: unit, quantity: quantity}, nil
}

func (d Duration) Unit() Unit { return d.unit }

func (d Duration) Quantity() int { return d.quantity }

// IsZero reports whether d carries no unit at all.
func (d Duration) IsZero() bool { return d.unit == "" }

// Negate flips the sign of the quantity, keeping the unit.
func (d Duration) Negate() Duration {
	return Duration{unit: d.unit, quantity: -d.quantity}
}

func (d Duration) String() string {
	if d.IsZero() {
		return "0 days"
	}
	return fmt.Sprintf("%d %s", d.quantity, d.unit)
}

// AddDuration returns t shifted by d. Month and year steps clamp the day of
// month to the last day of the target month.
func AddDuration(t time.Time, d Duration) time.Time {
	switch d.unit {
	case UnitDays:
		return t.AddDate(0, 0, d.quantity)
	case UnitMonths:
		return addMonths(t, d.quantity)
	case UnitYears:
		return addMonths(t, 12*d.quantity)
	default:
		return t
	}
}

func addMonths(t time.Time, n int) time.Time {
	if n == 0 {
		return t
	}
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	first := time.Date(year, month+time.Month(n), 1, hour, minute, sec, t.Nanosecond(), t.Location())
	if last := daysIn(first); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// fromMap decodes the single-key {unit: quantity} wire shape.
func fromMap(m map[string]int) (Duration, error) {
	if len(m) != 1 {
		return Duration{}, fmt.Errorf("%w: expected exactly one unit, got %d", ErrInvalidDuration, len(m))
	}
	for k, v := range m {
		return New(Unit(k), v)
	}
	return Duration{}, ErrInvalidDuration
}

func (d Duration) toMap() map[string]int {
	return map[string]int{string(d.unit): d.quantity}
}

// MarshalJSON encodes the duration as {"<unit>": quantity}, or null when zero.
func (d Duration) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.toMap())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Duration{}
		return nil
	}
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, err)
	}
	parsed, err := fromMap(m)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.toMap(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]int
	if err := node.Decode(&m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, err)
	}
	parsed, err := fromMap(m)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
