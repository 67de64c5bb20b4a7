package interval_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ganot/cropline/internal/domain/interval"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddDuration_ZeroDaysIsIdentity(t *testing.T) {
	for _, ts := range []time.Time{date(2024, 1, 1), date(2024, 2, 29), date(1999, 12, 31)} {
		require.Equal(t, ts, interval.AddDuration(ts, interval.Days(0)))
		require.Equal(t, ts, interval.AddDuration(ts, interval.Duration{}))
	}
}

func TestAddDuration_DaysRoundTrip(t *testing.T) {
	start := date(2024, 1, 1)
	for _, n := range []int{1, 7, 30, 59, 365, 1000, -3} {
		d := interval.Days(n)
		require.Equal(t, start, interval.AddDuration(interval.AddDuration(start, d), d.Negate()), "n=%d", n)
	}
}

func TestAddDuration_Units(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		d    interval.Duration
		want time.Time
	}{
		{"days", date(2024, 1, 1), interval.Days(30), date(2024, 1, 31)},
		{"negative days", date(2024, 3, 1), interval.Days(-1), date(2024, 2, 29)},
		{"months", date(2024, 1, 15), interval.Months(3), date(2024, 4, 15)},
		{"month end clamps", date(2024, 1, 31), interval.Months(1), date(2024, 2, 29)},
		{"month end clamps non leap", date(2023, 1, 31), interval.Months(1), date(2023, 2, 28)},
		{"months across year", date(2024, 11, 30), interval.Months(3), date(2025, 2, 28)},
		{"years", date(2024, 6, 1), interval.Years(2), date(2026, 6, 1)},
		{"leap day plus year", date(2024, 2, 29), interval.Years(1), date(2025, 2, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, interval.AddDuration(tt.from, tt.d))
		})
	}
}

func TestAddDuration_KeepsClock(t *testing.T) {
	from := time.Date(2024, 1, 31, 14, 30, 0, 0, time.UTC)
	got := interval.AddDuration(from, interval.Months(1))
	require.Equal(t, time.Date(2024, 2, 29, 14, 30, 0, 0, time.UTC), got)
}

func TestDuration_JSON(t *testing.T) {
	data, err := json.Marshal(interval.Months(3))
	require.NoError(t, err)
	require.JSONEq(t, `{"months":3}`, string(data))

	var d interval.Duration
	require.NoError(t, json.Unmarshal([]byte(`{"days": 10}`), &d))
	require.Equal(t, interval.Days(10), d)

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	require.True(t, d.IsZero())
}

func TestDuration_JSONRejectsMalformed(t *testing.T) {
	for _, raw := range []string{`{}`, `{"days":1,"months":2}`, `{"weeks":2}`, `{"days":-1}`, `{"days":"x"}`, `[1]`} {
		var d interval.Duration
		err := json.Unmarshal([]byte(raw), &d)
		require.ErrorIs(t, err, interval.ErrInvalidDuration, raw)
	}
}

func TestDuration_YAML(t *testing.T) {
	var doc struct {
		Estimated interval.Duration  `yaml:"estimated"`
		Repeat    *interval.Duration `yaml:"repeat"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("estimated: {years: 1}\nrepeat: {days: 7}\n"), &doc))
	require.Equal(t, interval.Years(1), doc.Estimated)
	require.NotNil(t, doc.Repeat)
	require.Equal(t, interval.Days(7), *doc.Repeat)

	err := yaml.Unmarshal([]byte("estimated: {fortnights: 1}\n"), &doc)
	require.ErrorIs(t, err, interval.ErrInvalidDuration)
}

func TestNew(t *testing.T) {
	d, err := interval.New(interval.UnitMonths, 2)
	require.NoError(t, err)
	require.Equal(t, interval.UnitMonths, d.Unit())
	require.Equal(t, 2, d.Quantity())

	_, err = interval.New("hours", 2)
	require.ErrorIs(t, err, interval.ErrInvalidDuration)
}

func TestParseDate(t *testing.T) {
	got, err := interval.ParseDate("2024-01-05")
	require.NoError(t, err)
	require.Equal(t, date(2024, 1, 5), got)

	got, err = interval.ParseDate("2024-01-05T02:00:00+02:00")
	require.NoError(t, err)
	require.Equal(t, date(2024, 1, 5), got)

	_, err = interval.ParseDate("05/01/2024")
	require.ErrorIs(t, err, interval.ErrInvalidDate)

	ptr, err := interval.ParseDatePtr("")
	require.NoError(t, err)
	require.Nil(t, ptr)
}
