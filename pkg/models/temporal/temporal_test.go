package temporal_test

import (
	"testing"
	"time"

	"github.com/pg-sharding/shardroute/pkg/models/routeerror"
	"github.com/pg-sharding/shardroute/pkg/models/temporal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthHandler(t *testing.T) {
	assert := assert.New(t)
	h := temporal.MonthHandler{}

	m, err := h.Add(time.January, 1, temporal.Months)
	assert.NoError(err)
	assert.Equal(time.February, m)

	m, err = h.Add(time.November, 3, temporal.Months)
	assert.NoError(err)
	assert.Equal(time.February, m)

	m, err = h.Add(time.January, -1, temporal.Months)
	assert.NoError(err)
	assert.Equal(time.December, m)

	_, err = h.Add(time.January, 1, temporal.Days)
	assert.Error(err)

	m, err = h.Parse("1", "M")
	assert.NoError(err)
	assert.Equal(time.January, m)

	m, err = h.Parse("09", "MM")
	assert.NoError(err)
	assert.Equal(time.September, m)

	m, err = h.Parse("Mar", "MMM")
	assert.NoError(err)
	assert.Equal(time.March, m)

	_, err = h.Parse("13", "M")
	assert.Error(err)

	s, err := h.Format(time.April, "MM")
	assert.NoError(err)
	assert.Equal("04", s)

	assert.Equal(time.July, h.ConvertTo(time.Date(2021, time.July, 4, 10, 0, 0, 0, time.UTC)))
}

func TestMonthIsAfter(t *testing.T) {
	assert := assert.New(t)
	h := temporal.MonthHandler{}

	type tcase struct {
		a, b time.Month
		step int64
		exp  bool
	}

	for _, tt := range []tcase{
		{a: time.October, b: time.December, step: 1, exp: false},
		{a: time.October, b: time.November, step: 3, exp: true},
		{a: time.December, b: time.December, step: 1, exp: true},
		{a: time.June, b: time.June, step: 1, exp: false},
		{a: time.November, b: time.December, step: 1, exp: false},
		{a: time.March, b: time.February, step: 1, exp: true},
	} {
		assert.Equal(tt.exp, h.IsAfter(tt.a, tt.b, tt.step), "%v %v %d", tt.a, tt.b, tt.step)
	}
}

func TestMonthEnumerate(t *testing.T) {
	assert := assert.New(t)
	h := temporal.MonthHandler{}

	suffixes, err := temporal.Enumerate[time.Month](h, time.February, time.December, 2, temporal.Months, "MM", 100)
	assert.NoError(err)
	assert.Equal([]string{"02", "04", "06", "08", "10"}, suffixes)

	/* a range crossing the year boundary terminates at once */
	suffixes, err = temporal.Enumerate[time.Month](h, time.October, time.February, 1, temporal.Months, "MM", 100)
	assert.NoError(err)
	assert.Empty(suffixes)
}

func TestAddClampsMonthEnd(t *testing.T) {
	assert := assert.New(t)

	jan31 := time.Date(2023, time.January, 31, 12, 30, 0, 0, time.UTC)

	got, err := temporal.DateTimeHandler{}.Add(jan31, 1, temporal.Months)
	assert.NoError(err)
	assert.Equal(time.Date(2023, time.February, 28, 12, 30, 0, 0, time.UTC), got)

	leap := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	got, err = temporal.DateHandler{}.Add(leap, 1, temporal.Months)
	assert.NoError(err)
	assert.Equal(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), got)

	feb29 := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	got, err = temporal.DateHandler{}.Add(feb29, 1, temporal.Years)
	assert.NoError(err)
	assert.Equal(time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), got)

	got, err = temporal.DateHandler{}.Add(jan31, -2, temporal.Months)
	assert.NoError(err)
	assert.Equal(time.Date(2022, time.November, 30, 0, 0, 0, 0, time.UTC), temporal.DateHandler{}.ConvertTo(got))

	_, err = temporal.DateHandler{}.Add(jan31, 1, temporal.Hours)
	assert.Error(err)
}

func TestTimeOfDayHandler(t *testing.T) {
	assert := assert.New(t)
	h := temporal.TimeOfDayHandler{}

	v, err := h.Parse("23:30:00", "HH:mm:ss")
	assert.NoError(err)
	assert.Equal(23*time.Hour+30*time.Minute, v)

	v, err = h.Add(v, 1, temporal.Hours)
	assert.NoError(err)
	assert.Equal(30*time.Minute, v)

	s, err := h.Format(v, "HHmm")
	assert.NoError(err)
	assert.Equal("0030", s)

	_, err = h.Add(v, 1, temporal.Days)
	assert.Error(err)
}

func TestLinearRoundTrip(t *testing.T) {
	assert := assert.New(t)
	h := temporal.DateTimeHandler{}

	lower, err := h.Parse("2024-01-01 00:00:00", "yyyy-MM-dd HH:mm:ss")
	require.NoError(t, err)
	upper, err := h.Parse("2024-01-01 05:00:00", "yyyy-MM-dd HH:mm:ss")
	require.NoError(t, err)

	suffixes, err := temporal.Enumerate[time.Time](h, lower, upper, 2, temporal.Hours, "yyyyMMddHH", 100)
	assert.NoError(err)
	assert.Equal([]string{"2024010100", "2024010102", "2024010104"}, suffixes)

	for i, s := range suffixes {
		v, err := h.Parse(s, "yyyyMMddHH")
		assert.NoError(err)
		assert.Equal(lower.Add(time.Duration(2*i)*time.Hour), v)
	}
}

func TestYearAndYearMonth(t *testing.T) {
	assert := assert.New(t)

	years, err := temporal.Enumerate[int](temporal.YearHandler{}, 2020, 2023, 1, temporal.Years, "yyyy", 100)
	assert.NoError(err)
	assert.Equal([]string{"2020", "2021", "2022", "2023"}, years)

	ym := temporal.YearMonthHandler{}
	lower, err := ym.Parse("2023-11", "yyyy-MM")
	require.NoError(t, err)
	upper, err := ym.Parse("2024-02", "yyyy-MM")
	require.NoError(t, err)

	months, err := temporal.Enumerate[time.Time](ym, lower, upper, 1, temporal.Months, "yyyyMM", 100)
	assert.NoError(err)
	assert.Equal([]string{"202311", "202312", "202401", "202402"}, months)
}

func TestEnumerateLimits(t *testing.T) {
	assert := assert.New(t)
	h := temporal.DateHandler{}

	lower := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	upper := time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC)

	_, err := temporal.Enumerate[time.Time](h, lower, upper, 1, temporal.Days, "yyyyMMdd", 100)
	assert.True(routeerror.Is(err, routeerror.ROUTE_CONFIG))

	_, err = temporal.Enumerate[time.Time](h, lower, upper, 0, temporal.Days, "yyyyMMdd", 100)
	assert.True(routeerror.Is(err, routeerror.ROUTE_CONFIG))

	suffixes, err := temporal.Enumerate[time.Time](h, lower, upper, 1, temporal.Days, "yyyyMMdd", 366)
	assert.NoError(err)
	assert.Len(suffixes, 366)
}

func TestLayoutAndKind(t *testing.T) {
	assert := assert.New(t)

	type tcase struct {
		pattern string
		layout  string
		kind    temporal.Kind
	}

	for _, tt := range []tcase{
		{pattern: "yyyy-MM-dd HH:mm:ss", layout: "2006-01-02 15:04:05", kind: temporal.KindDateTime},
		{pattern: "yyyy-MM-dd'T'HH:mm:ss.SSS", layout: "2006-01-02T15:04:05.000", kind: temporal.KindDateTime},
		{pattern: "yyyyMMdd", layout: "20060102", kind: temporal.KindDate},
		{pattern: "yyyy_MM", layout: "2006_01", kind: temporal.KindYearMonth},
		{pattern: "yyyy", layout: "2006", kind: temporal.KindYear},
		{pattern: "MM", layout: "01", kind: temporal.KindMonth},
		{pattern: "HH:mm", layout: "15:04", kind: temporal.KindTimeOfDay},
		{pattern: "yy'q'M", layout: "06q1", kind: temporal.KindYearMonth},
	} {
		layout, err := temporal.Layout(tt.pattern)
		assert.NoError(err, tt.pattern)
		assert.Equal(tt.layout, layout, tt.pattern)
		assert.Equal(tt.kind, temporal.InferKind(tt.pattern), tt.pattern)
	}

	_, err := temporal.Layout("yyyy'MM")
	assert.Error(err)
	_, err = temporal.Layout("yyyy-ww")
	assert.Error(err)
}

func TestUnitByName(t *testing.T) {
	assert := assert.New(t)

	u, err := temporal.UnitByName("months")
	assert.NoError(err)
	assert.Equal(temporal.Months, u)
	assert.Equal("MONTHS", u.String())

	_, err = temporal.UnitByName("fortnights")
	assert.Error(err)

	k, err := temporal.KindByName("year-month")
	assert.NoError(err)
	assert.Equal(temporal.KindYearMonth, k)
}
