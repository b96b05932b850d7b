// Package period maps YYYY-Www work-week identifiers to absolute time
// boundaries and back, using a single fixed organizational timezone.
//
// Week 1 of a year starts on the Sunday on or before January 1, unless
// January 1 falls on a Friday or Saturday, in which case week 1 starts on
// the following Sunday. A work-week runs Sunday 00:00:00.000 through
// Saturday 23:59:59.999 wall-clock time in the organizational zone, so a
// week is always 7 wall-clock days even across DST transitions.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var periodPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// Calculator performs all period arithmetic in one fixed timezone. Both
// Boundaries and DateToPeriod route through the same week-1 anchor so that
// aggregation and period labeling can never disagree about which entries
// belong to which week.
type Calculator struct {
	loc *time.Location
}

func NewCalculator(timezone string) (*Calculator, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Calculator{loc: loc}, nil
}

// Location returns the organizational timezone.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// Parse splits a period identifier into year and week, validating both the
// format and the week range for that year.
func (c *Calculator) Parse(p string) (year, week int, err error) {
	m := periodPattern.FindStringSubmatch(p)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid period %q: want YYYY-Www", p)
	}
	year, _ = strconv.Atoi(m[1])
	week, _ = strconv.Atoi(m[2])
	if week < 1 || week > c.WeeksInYear(year) {
		return 0, 0, fmt.Errorf("invalid period %q: year %d has %d weeks", p, year, c.WeeksInYear(year))
	}
	return year, week, nil
}

// IsValid reports whether p matches YYYY-Www and ww is within the week count
// of that year.
func (c *Calculator) IsValid(p string) bool {
	_, _, err := c.Parse(p)
	return err == nil
}

// WeeksInYear returns 53 for years whose January 1 falls on a Thursday, on a
// Wednesday of a leap year, or on a Sunday; 52 otherwise.
func (c *Calculator) WeeksInYear(year int) int {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, c.loc)
	switch jan1.Weekday() {
	case time.Thursday, time.Sunday:
		return 53
	case time.Wednesday:
		if isLeapYear(year) {
			return 53
		}
	}
	return 52
}

// Boundaries returns the inclusive start and end instants of the period's
// work-week: Sunday 00:00:00.000 through Saturday 23:59:59.999 local time.
func (c *Calculator) Boundaries(p string) (start, end time.Time, err error) {
	year, week, err := c.Parse(p)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = c.weekOneStart(year).AddDate(0, 0, (week-1)*7)
	lastDay := start.AddDate(0, 0, 6)
	end = time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), 23, 59, 59, int(999*time.Millisecond), c.loc)
	return start, end, nil
}

// CurrentPeriod returns the period identifier containing the current instant.
func (c *Calculator) CurrentPeriod() string {
	return c.DateToPeriod(time.Now())
}

// PeriodToDate returns a representative date for the period: the Monday of
// its work-week, at local midnight.
func (c *Calculator) PeriodToDate(p string) (time.Time, error) {
	year, week, err := c.Parse(p)
	if err != nil {
		return time.Time{}, err
	}
	sunday := c.weekOneStart(year).AddDate(0, 0, (week-1)*7)
	return sunday.AddDate(0, 0, 1), nil
}

// DateToPeriod returns the period identifier whose boundaries contain t.
// A week whose Sunday start falls on or after the next year's week-1 anchor
// belongs to the next year.
func (c *Calculator) DateToPeriod(t time.Time) string {
	z := t.In(c.loc)
	ws := c.sundayOnOrBefore(z)
	year := ws.Year()
	if !ws.Before(c.weekOneStart(year + 1)) {
		year++
	}
	week := daysBetween(c.weekOneStart(year), ws)/7 + 1
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// weekOneStart returns the local midnight at which the year's week 1 begins.
func (c *Calculator) weekOneStart(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, c.loc)
	wd := int(jan1.Weekday())
	if wd >= 5 {
		return jan1.AddDate(0, 0, 7-wd)
	}
	return jan1.AddDate(0, 0, -wd)
}

func (c *Calculator) sundayOnOrBefore(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// daysBetween counts calendar days from a to b, ignoring clock offsets so
// DST shifts cannot skew week arithmetic.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
