package temporal

import (
	"fmt"
	"strings"
	"time"
)

type Kind int

const (
	KindDateTime = Kind(iota)
	KindDate
	KindTimeOfDay
	KindYearMonth
	KindYear
	KindMonth
)

func KindByName(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "datetime", "date-time", "":
		return KindDateTime, nil
	case "date":
		return KindDate, nil
	case "time", "time-of-day":
		return KindTimeOfDay, nil
	case "year-month", "yearmonth":
		return KindYearMonth, nil
	case "year":
		return KindYear, nil
	case "month":
		return KindMonth, nil
	default:
		return 0, fmt.Errorf("unknown temporal kind: %s", name)
	}
}

func (k Kind) String() string {
	switch k {
	case KindDateTime:
		return "datetime"
	case KindDate:
		return "date"
	case KindTimeOfDay:
		return "time"
	case KindYearMonth:
		return "year-month"
	case KindYear:
		return "year"
	case KindMonth:
		return "month"
	}
	return "unknown"
}

type Unit int

const (
	Millis = Unit(iota)
	Seconds
	Minutes
	Hours
	Days
	Weeks
	Months
	Years
)

// UnitByName accepts the chrono unit names used in rule properties.
func UnitByName(name string) (Unit, error) {
	switch strings.ToUpper(name) {
	case "MILLIS":
		return Millis, nil
	case "SECONDS":
		return Seconds, nil
	case "MINUTES":
		return Minutes, nil
	case "HOURS":
		return Hours, nil
	case "DAYS", "":
		return Days, nil
	case "WEEKS":
		return Weeks, nil
	case "MONTHS":
		return Months, nil
	case "YEARS":
		return Years, nil
	default:
		return 0, fmt.Errorf("unknown datetime interval unit: %s", name)
	}
}

func (u Unit) String() string {
	return [...]string{"MILLIS", "SECONDS", "MINUTES", "HOURS", "DAYS", "WEEKS", "MONTHS", "YEARS"}[u]
}

func (u Unit) duration() (time.Duration, bool) {
	switch u {
	case Millis:
		return time.Millisecond, true
	case Seconds:
		return time.Second, true
	case Minutes:
		return time.Minute, true
	case Hours:
		return time.Hour, true
	}
	return 0, false
}

func errUnsupportedUnit(k Kind, u Unit) error {
	return fmt.Errorf("unit %s is not supported for %s values", u, k)
}

// Handler gives one temporal scalar kind its parse, compare and advance
// semantics. Implementations are stateless.
type Handler[T any] interface {
	Kind() Kind
	Parse(text string, pattern string) (T, error)
	ConvertTo(t time.Time) T
	// IsAfter is the loop termination check of Enumerate. For linear kinds it
	// is chronological order; Month also reports true once a step would
	// leave the year.
	IsAfter(a, b T, step int64) bool
	Add(a T, amount int64, unit Unit) (T, error)
	Format(a T, pattern string) (string, error)
	Compare(a, b T) int
}

/* calendar arithmetic */

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonths advances t by n months, clamping the day to the end of the
// target month.
func addMonths(t time.Time, n int64) time.Time {
	y, m, d := t.Date()
	total := int64(y)*12 + int64(m-1) + n
	ny := int(total / 12)
	nm := time.Month(total%12 + 1)
	if total%12 < 0 {
		ny--
		nm += 12
	}
	if last := daysIn(ny, nm); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(ny, nm, d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func addDateTime(t time.Time, amount int64, unit Unit) time.Time {
	if d, ok := unit.duration(); ok {
		return t.Add(time.Duration(amount) * d)
	}
	switch unit {
	case Days:
		return t.AddDate(0, 0, int(amount))
	case Weeks:
		return t.AddDate(0, 0, 7*int(amount))
	case Months:
		return addMonths(t, amount)
	default:
		return addMonths(t, 12*amount)
	}
}

func parseIn(text, pattern string) (time.Time, error) {
	layout, err := Layout(pattern)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation(layout, strings.TrimSpace(text), time.UTC)
}

func formatIn(t time.Time, pattern string) (string, error) {
	layout, err := Layout(pattern)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

/* date-time */

type DateTimeHandler struct{}

var _ Handler[time.Time] = DateTimeHandler{}

func (DateTimeHandler) Kind() Kind { return KindDateTime }

func (DateTimeHandler) Parse(text string, pattern string) (time.Time, error) {
	return parseIn(text, pattern)
}

func (DateTimeHandler) ConvertTo(t time.Time) time.Time { return t }

func (DateTimeHandler) IsAfter(a, b time.Time, _ int64) bool { return a.After(b) }

func (DateTimeHandler) Add(a time.Time, amount int64, unit Unit) (time.Time, error) {
	return addDateTime(a, amount, unit), nil
}

func (DateTimeHandler) Format(a time.Time, pattern string) (string, error) {
	return formatIn(a, pattern)
}

func (DateTimeHandler) Compare(a, b time.Time) int { return a.Compare(b) }

/* date */

type DateHandler struct{}

var _ Handler[time.Time] = DateHandler{}

func (DateHandler) Kind() Kind { return KindDate }

func (h DateHandler) Parse(text string, pattern string) (time.Time, error) {
	t, err := parseIn(text, pattern)
	if err != nil {
		return time.Time{}, err
	}
	return h.ConvertTo(t), nil
}

func (DateHandler) ConvertTo(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (DateHandler) IsAfter(a, b time.Time, _ int64) bool { return a.After(b) }

func (DateHandler) Add(a time.Time, amount int64, unit Unit) (time.Time, error) {
	if _, ok := unit.duration(); ok {
		return time.Time{}, errUnsupportedUnit(KindDate, unit)
	}
	return addDateTime(a, amount, unit), nil
}

func (DateHandler) Format(a time.Time, pattern string) (string, error) {
	return formatIn(a, pattern)
}

func (DateHandler) Compare(a, b time.Time) int { return a.Compare(b) }

/* time of day, as the offset since midnight */

type TimeOfDayHandler struct{}

var _ Handler[time.Duration] = TimeOfDayHandler{}

const day = 24 * time.Hour

func (TimeOfDayHandler) Kind() Kind { return KindTimeOfDay }

func (h TimeOfDayHandler) Parse(text string, pattern string) (time.Duration, error) {
	t, err := parseIn(text, pattern)
	if err != nil {
		return 0, err
	}
	return h.ConvertTo(t), nil
}

func (TimeOfDayHandler) ConvertTo(t time.Time) time.Duration {
	hh, mm, ss := t.Clock()
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute +
		time.Duration(ss)*time.Second + time.Duration(t.Nanosecond())
}

func (TimeOfDayHandler) IsAfter(a, b time.Duration, _ int64) bool { return a > b }

// Add wraps around midnight.
func (TimeOfDayHandler) Add(a time.Duration, amount int64, unit Unit) (time.Duration, error) {
	d, ok := unit.duration()
	if !ok {
		return 0, errUnsupportedUnit(KindTimeOfDay, unit)
	}
	r := (a + time.Duration(amount)*d) % day
	if r < 0 {
		r += day
	}
	return r, nil
}

func (TimeOfDayHandler) Format(a time.Duration, pattern string) (string, error) {
	return formatIn(time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(a), pattern)
}

func (TimeOfDayHandler) Compare(a, b time.Duration) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

/* year-month, normalized to the first day of the month */

type YearMonthHandler struct{}

var _ Handler[time.Time] = YearMonthHandler{}

func (YearMonthHandler) Kind() Kind { return KindYearMonth }

func (h YearMonthHandler) Parse(text string, pattern string) (time.Time, error) {
	t, err := parseIn(text, pattern)
	if err != nil {
		return time.Time{}, err
	}
	return h.ConvertTo(t), nil
}

func (YearMonthHandler) ConvertTo(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (YearMonthHandler) IsAfter(a, b time.Time, _ int64) bool { return a.After(b) }

func (YearMonthHandler) Add(a time.Time, amount int64, unit Unit) (time.Time, error) {
	switch unit {
	case Months:
		return addMonths(a, amount), nil
	case Years:
		return addMonths(a, 12*amount), nil
	}
	return time.Time{}, errUnsupportedUnit(KindYearMonth, unit)
}

func (YearMonthHandler) Format(a time.Time, pattern string) (string, error) {
	return formatIn(a, pattern)
}

func (YearMonthHandler) Compare(a, b time.Time) int { return a.Compare(b) }

/* year */

type YearHandler struct{}

var _ Handler[int] = YearHandler{}

func (YearHandler) Kind() Kind { return KindYear }

func (YearHandler) Parse(text string, pattern string) (int, error) {
	t, err := parseIn(text, pattern)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}

func (YearHandler) ConvertTo(t time.Time) int { return t.Year() }

func (YearHandler) IsAfter(a, b int, _ int64) bool { return a > b }

func (YearHandler) Add(a int, amount int64, unit Unit) (int, error) {
	if unit != Years {
		return 0, errUnsupportedUnit(KindYear, unit)
	}
	return a + int(amount), nil
}

func (YearHandler) Format(a int, pattern string) (string, error) {
	return formatIn(time.Date(a, 1, 1, 0, 0, 0, 0, time.UTC), pattern)
}

func (YearHandler) Compare(a, b int) int { return a - b }

/* month of year, cyclic */

type MonthHandler struct{}

var _ Handler[time.Month] = MonthHandler{}

func (MonthHandler) Kind() Kind { return KindMonth }

func (MonthHandler) Parse(text string, pattern string) (time.Month, error) {
	text = strings.TrimSpace(text)
	if monthOnly(pattern) {
		var n int
		if _, err := fmt.Sscanf(text, "%d", &n); err != nil {
			return 0, fmt.Errorf("invalid month %q: %w", text, err)
		}
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("invalid month %q", text)
		}
		return time.Month(n), nil
	}
	t, err := parseIn(text, pattern)
	if err != nil {
		return 0, err
	}
	return t.Month(), nil
}

func (MonthHandler) ConvertTo(t time.Time) time.Month { return t.Month() }

// IsAfter is true when a is past b or when advancing a by step would run
// past December.
func (MonthHandler) IsAfter(a, b time.Month, step int64) bool {
	return a > b || int64(a)+step > 12
}

func (MonthHandler) Add(a time.Month, amount int64, unit Unit) (time.Month, error) {
	if unit != Months {
		return 0, errUnsupportedUnit(KindMonth, unit)
	}
	r := (int64(a)-1+amount)%12 + 1
	if r <= 0 {
		r += 12
	}
	return time.Month(r), nil
}

func (MonthHandler) Format(a time.Month, pattern string) (string, error) {
	switch pattern {
	case "M":
		return fmt.Sprintf("%d", int(a)), nil
	case "MM":
		return fmt.Sprintf("%02d", int(a)), nil
	}
	return formatIn(time.Date(2000, a, 1, 0, 0, 0, 0, time.UTC), pattern)
}

func (MonthHandler) Compare(a, b time.Month) int { return int(a) - int(b) }
