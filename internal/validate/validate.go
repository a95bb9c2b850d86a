// Package validate holds the pure per-field rules applied to a form draft.
// Each validator returns an empty string when the field passes, or a
// display reason when it fails. Aggregation into a field->reason map is the
// booking engine's job.
package validate

import (
	"strings"
	"time"

	"github.com/lucasferr-dev/zapagenda/internal/model"
)

const (
	ReasonRequired      = "required"
	ReasonInvalidPhone  = "invalid phone format"
	ReasonInvalidDate   = "invalid date"
	ReasonPastDate      = "date is in the past"
	ReasonClosedWeekday = "closed on this weekday"
	ReasonSlotTaken     = "time slot already booked"
)

func Name(name string) string {
	if strings.TrimSpace(name) == "" {
		return ReasonRequired
	}
	return ""
}

func Phone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return ReasonRequired
	}
	n := len(digitsOnly(phone))
	if n < 10 || n > 11 {
		return ReasonInvalidPhone
	}
	return ""
}

func Service(service string, catalog []string) string {
	service = strings.TrimSpace(service)
	for _, s := range catalog {
		if s == service {
			return ""
		}
	}
	return ReasonRequired
}

// Date checks a YYYY-MM-DD value against the weekday policy and rejects
// days strictly before today's calendar date. now supplies "today".
func Date(date string, weekdays map[time.Weekday]bool, now time.Time) string {
	if strings.TrimSpace(date) == "" {
		return ReasonRequired
	}
	day, err := ParseDate(date)
	if err != nil {
		return ReasonInvalidDate
	}
	today := atNoon(now)
	if day.Before(today) {
		return ReasonPastDate
	}
	if !weekdays[day.Weekday()] {
		return ReasonClosedWeekday
	}
	return ""
}

// Time checks the slot label against the catalog and asks taken whether the
// (date, time) pair is already occupied. The conflict check only makes sense
// for a valid date, so callers should pass taken=nil until the date passes.
func Time(date, label string, catalog []string, taken func(date, label string) bool) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ReasonRequired
	}
	found := false
	for _, s := range catalog {
		if s == label {
			found = true
			break
		}
	}
	if !found {
		return ReasonRequired
	}
	if taken != nil && taken(strings.TrimSpace(date), label) {
		return ReasonSlotTaken
	}
	return ""
}

// Address validates the structured sub-record: every field except complement
// is mandatory. Keys in the returned map are prefixed with "address.".
// When the deployment pins the service area, city and state are not user
// input and are skipped here.
func Address(addr *model.Address, fixedLocation bool) map[string]string {
	errs := make(map[string]string)
	if addr == nil {
		errs["address"] = ReasonRequired
		return errs
	}
	req := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			errs["address."+field] = ReasonRequired
		}
	}
	req("postal_code", addr.PostalCode)
	req("street", addr.Street)
	req("number", addr.Number)
	req("neighborhood", addr.Neighborhood)
	if !fixedLocation {
		req("city", addr.City)
		req("state", addr.State)
	}
	return errs
}

// ParseDate interprets a YYYY-MM-DD string at local noon. Anchoring away
// from midnight keeps weekday and past-date comparisons stable across DST
// and timezone-of-parse differences.
func ParseDate(s string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.Local), nil
}

func atNoon(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.Local)
}
