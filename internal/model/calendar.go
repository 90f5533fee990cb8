package model

import "strings"

// Day is a calendar board bucket name.
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
)

// Days lists the seven buckets in board order.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseDay matches s case-insensitively against the day names. "", "none"
// and "unassigned" parse to nil.
func ParseDay(s string) (*Day, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none", "unassigned":
		return nil, true
	}
	for _, d := range Days {
		if strings.EqualFold(string(d), s) || strings.EqualFold(string(d)[:3], s) {
			day := d
			return &day, true
		}
	}
	return nil, false
}

// WeekFrom returns the seven days starting at start. An unknown start
// yields the Monday-first order.
func WeekFrom(start string) []Day {
	d, ok := ParseDay(start)
	if !ok || d == nil {
		return Days
	}
	for i, day := range Days {
		if day == *d {
			return append(append([]Day{}, Days[i:]...), Days[:i]...)
		}
	}
	return Days
}

// SameDay compares two optional days.
func SameDay(a, b *Day) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// DayLabel renders an optional day for display.
func DayLabel(d *Day) string {
	if d == nil {
		return "Unassigned"
	}
	return string(*d)
}
