package model

import (
	"strings"
	"time"
)

// DateLayout is the day/month/year layout used in every persisted file.
const DateLayout = "02/01/2006"

// Date is a calendar date kept in its persisted dd/mm/yyyy form.
// Malformed values survive a load/save cycle untouched and only fail validation.
type Date string

// NewDate formats t as a Date.
func NewDate(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// Time parses the date.
func (d Date) Time() (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(string(d)))
}

// Valid reports whether the date parses as day/month/year.
func (d Date) Valid() bool {
	_, err := d.Time()
	return err == nil
}

// IsZero reports whether no date was given.
func (d Date) IsZero() bool {
	return strings.TrimSpace(string(d)) == ""
}

func (d Date) String() string {
	return string(d)
}
