package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func mustDate(t *testing.T, s string, loc *time.Location) time.Time {
	t.Helper()
	d, err := ParseDate(s, loc)
	require.NoError(t, err)
	return d
}

func assertContiguous(t *testing.T, days []DayRange) {
	t.Helper()
	for i, d := range days {
		assert.Greater(t, d.End, d.Start, "day %d", i)
		if i > 0 {
			assert.Equal(t, days[i-1].End, d.Start, "gap or overlap before day %d", i)
		}
	}
}

func TestDaysInclusiveCount(t *testing.T) {
	loc := newYork(t)
	cases := []struct {
		start, end string
		want       int
	}{
		{"03/10/2025", "03/10/2025", 1},
		{"11/01/2025", "12/20/2025", 50},
		{"12/30/2024", "01/02/2025", 4},
		{"02/27/2024", "03/01/2024", 4},
	}
	for _, tc := range cases {
		t.Run(tc.start+"-"+tc.end, func(t *testing.T) {
			days := Collect(mustDate(t, tc.start, loc), mustDate(t, tc.end, loc), loc)
			require.Len(t, days, tc.want)
			assertContiguous(t, days)
		})
	}
}

func TestDaysSpringForward(t *testing.T) {
	loc := newYork(t)
	days := Collect(mustDate(t, "03/08/2025", loc), mustDate(t, "03/10/2025", loc), loc)
	require.Len(t, days, 3)
	assertContiguous(t, days)

	assert.Equal(t, 24*time.Hour, days[0].Duration())
	assert.Equal(t, 23*time.Hour, days[1].Duration())
	assert.Equal(t, 24*time.Hour, days[2].Duration())
}

func TestDaysFallBack(t *testing.T) {
	loc := newYork(t)
	days := Collect(mustDate(t, "11/01/2025", loc), mustDate(t, "11/03/2025", loc), loc)
	require.Len(t, days, 3)
	assertContiguous(t, days)

	assert.Equal(t, 24*time.Hour, days[0].Duration())
	assert.Equal(t, 25*time.Hour, days[1].Duration())
	assert.Equal(t, 24*time.Hour, days[2].Duration())
}

func TestDaysStartAtLocalMidnight(t *testing.T) {
	loc := newYork(t)
	for d := range Days(mustDate(t, "03/08/2025", loc), mustDate(t, "03/12/2025", loc), loc) {
		st := d.StartTime(loc)
		assert.Equal(t, 0, st.Hour())
		assert.Equal(t, 0, st.Minute())
		assert.Equal(t, 0, st.Second())
	}
}

func TestDaysRestartable(t *testing.T) {
	loc := time.UTC
	seq := Days(mustDate(t, "01/01/2025", loc), mustDate(t, "01/05/2025", loc), loc)

	var first, second []DayRange
	for d := range seq {
		first = append(first, d)
	}
	for d := range seq {
		second = append(second, d)
	}
	assert.Equal(t, first, second)
	assert.Len(t, first, 5)
}

func TestDaysEarlyStop(t *testing.T) {
	loc := time.UTC
	n := 0
	for range Days(mustDate(t, "01/01/2025", loc), mustDate(t, "12/31/2025", loc), loc) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestDaysEndBeforeStart(t *testing.T) {
	loc := time.UTC
	days := Collect(mustDate(t, "01/05/2025", loc), mustDate(t, "01/01/2025", loc), loc)
	assert.Empty(t, days)
}

func TestDayOfAndContains(t *testing.T) {
	loc := newYork(t)
	ts := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC) // 10:30 EDT
	d := DayOf(ts, loc)

	assert.True(t, d.Contains(ts))
	assert.Equal(t, "2025-03-10", d.StartTime(loc).Format("2006-01-02"))
	assert.False(t, d.Contains(time.Unix(d.End, 0)))
	assert.True(t, d.Contains(time.Unix(d.Start, 0)))
}

func TestParseDateRejectsBadInput(t *testing.T) {
	_, err := ParseDate("2025-03-10", time.UTC)
	assert.Error(t, err)
}
