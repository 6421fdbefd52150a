// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jalali

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"1364/01/20", "Apr. 09, 1985"},
		{"1403/2/2", "Apr. 21, 2024"},
		{"1403/2/3", "Apr. 22, 2024"},
		{"1403/1/1", "Mar. 20, 2024"},
		{"1402/01/01", "Mar. 21, 2023"},
		{"1402/12/29", "Mar. 19, 2024"},
		{"1403/12/30", "Mar. 20, 2025"},
		{"1399/10/11", "Dec. 31, 2020"},
		{"1399/12/30", "Mar. 20, 2021"},
		{"1357/11/22", "Feb. 11, 1979"},
		{"۱۴۰۳/۲/۲", "Apr. 21, 2024"},
		{"١٣٦٤/٠١/٢٠", "Apr. 09, 1985"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := Convert(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertInvalid(t *testing.T) {
	tests := []struct {
		token  string
		reason string
	}{
		{"1403/13/40", "month 13"},
		{"1403/0/10", "month 0"},
		{"1403/1/0", "day 0"},
		{"1403/1/32", "day 32"},
		{"1403/7/31", "day 31"},
		{"1402/12/30", "common year 1402"},
		{"0000/01/01", "year 0"},
		{"9999/01/01", "year 9999"},
		{"1403/2", "expected YYYY/M/D"},
		{"1403/ 2/2", "not a number"},
		{"1403/+2/2", "not a number"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			_, err := Convert(tt.token)
			require.Error(t, err)

			var invalid *InvalidDateError
			require.True(t, errors.As(err, &invalid), "error %v should be *InvalidDateError", err)
			assert.Equal(t, tt.token, invalid.Token)
			assert.Contains(t, invalid.Reason, tt.reason)
		})
	}
}

func TestConvertYearBounds(t *testing.T) {
	for _, token := range []string{"0001/1/1", "0475/12/29", "0476/1/1", "9377/12/29"} {
		t.Run(token, func(t *testing.T) {
			d, err := Parse(token)
			require.NoError(t, err)

			text, err := Convert(token)
			require.NoError(t, err)
			assert.Equal(t, d.Gregorian().Format(GregorianLayout), text)
		})
	}

	// Jalali year 1 began in March 622.
	d, err := Parse("0001/1/1")
	require.NoError(t, err)
	assert.Equal(t, 622, d.Gregorian().Year())
	assert.Equal(t, time.March, d.Gregorian().Month())
}

func TestEarlyYearsAccepted(t *testing.T) {
	for year := 1; year <= 476; year++ {
		_, err := Parse(Date{Year: year, Month: 1, Day: 1}.String())
		require.NoError(t, err, "year %d", year)
		_, err = Parse(Date{Year: year, Month: 12, Day: 29}.String())
		require.NoError(t, err, "year %d", year)
	}
}

func TestParse(t *testing.T) {
	d, err := Parse("1403/2/2")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 1403, Month: 2, Day: 2}, d)
	assert.Equal(t, "1403/02/02", d.String())
	assert.Equal(t, time.Date(2024, time.April, 21, 0, 0, 0, 0, time.UTC), d.Gregorian())
}

// Every valid date must survive Jalali -> Gregorian text -> Jalali, and
// consecutive Jalali days must map to consecutive Gregorian days.
func TestConvertRoundTrip(t *testing.T) {
	var prev time.Time
	for year := 1340; year <= 1420; year++ {
		for month := 1; month <= 12; month++ {
			for day := 1; day <= maxDays(month); day++ {
				d, err := Parse(Date{Year: year, Month: month, Day: day}.String())
				if err != nil {
					// Only Esfand 30 of a common year is rejected.
					require.Equal(t, 12, month, "unexpected rejection: %v", err)
					require.Equal(t, 30, day, "unexpected rejection: %v", err)
					continue
				}

				text, err := Convert(d.String())
				require.NoError(t, err)

				g, err := time.Parse(GregorianLayout, text)
				require.NoError(t, err, "converted text %q should parse", text)
				require.Equal(t, d, FromGregorian(g), "round trip of %s via %s", d, text)

				if !prev.IsZero() {
					require.Equal(t, 24*time.Hour, g.Sub(prev), "gap before %s", d)
				}
				prev = g
			}
		}
	}
}

func TestLeapYearsMatchCalendar(t *testing.T) {
	leap := map[int]bool{1395: true, 1399: true, 1403: true, 1408: true}
	for year := 1395; year <= 1408; year++ {
		_, err := Parse(Date{Year: year, Month: 12, Day: 30}.String())
		if leap[year] {
			assert.NoError(t, err, "year %d is a leap year", year)
		} else {
			assert.Error(t, err, "year %d is a common year", year)
		}
	}
}
