// Package restriction implements the recurring facility access restrictions.
//
// The only rule today is the first-Thursday restriction: on the first
// Thursday of every month, basic-tier employees need a special permit to
// drive in. The check is pure so callers can evaluate it for any instant.
package restriction

import "time"

// IsFirstThursday reports whether t falls on the first Thursday of its
// calendar month, in t's location.
func IsFirstThursday(t time.Time) bool {
	if t.Weekday() != time.Thursday {
		return false
	}
	// The first Thursday is always within the first seven days.
	return t.Day() <= 7
}

// IsRestrictedDay reports whether the restricted-day policy applies at t.
// Kept separate from IsFirstThursday so new policies slot in without
// touching callers.
func IsRestrictedDay(t time.Time) bool {
	return IsFirstThursday(t)
}
