package rocdate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGregorian_String(t *testing.T) {
	d := FromGregorian(2025, time.December, 8)
	assert.Equal(t, 114, d.Year)
	assert.Equal(t, "114/12/08", d.String())
	assert.Equal(t, "2025-12-08", d.GregorianString())
	assert.Equal(t, "114.12.08", d.UpstreamFormat())
}

func TestParse_RoundTrip(t *testing.T) {
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 800; i++ {
		g := start.AddDate(0, 0, i)
		d := FromTime(g)

		parsed, err := Parse(d.String())
		require.NoError(t, err, d.String())

		y, m, day := parsed.Gregorian()
		gy, gm, gd := g.Date()
		assert.Equal(t, gy, y)
		assert.Equal(t, gm, m)
		assert.Equal(t, gd, day)
	}
}

func TestParse_ShortYear(t *testing.T) {
	d, err := Parse("1/01/01")
	require.NoError(t, err)
	assert.Equal(t, "1912-01-01", d.GregorianString())
}

func TestParse_Rejects(t *testing.T) {
	cases := []string{
		"",
		"113-05-01",
		"113/5/01",
		"113/05/1",
		"1130/05/01",
		"113/02/30",
		"113/13/01",
		"113/00/10",
		"113/04/31",
		"0/01/01",
		" 113/05/01",
		"113/05/01 ",
		"abc/de/fg",
	}
	for _, c := range cases {
		_, err := Parse(c)
		assert.ErrorIs(t, err, ErrInvalidDate, "expected %q to be rejected", c)
	}
}

func TestParse_LeapDay(t *testing.T) {
	_, err := Parse("113/02/29") // 2024
	assert.NoError(t, err)

	_, err = Parse("114/02/29") // 2025
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseGregorian(t *testing.T) {
	d, err := ParseGregorian("2025-12-07")
	require.NoError(t, err)
	assert.Equal(t, "114/12/07", d.String())

	_, err = ParseGregorian("2025-12-07T10:00:00Z")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestIsFixedNonTradingDay_FullMonth(t *testing.T) {
	// December 2025: Mondays are the 1st, 8th, 15th, 22nd and 29th.
	mondays := map[int]bool{1: true, 8: true, 15: true, 22: true, 29: true}
	for day := 1; day <= 31; day++ {
		d := FromGregorian(2025, time.December, day)
		assert.Equal(t, mondays[day], IsFixedNonTradingDay(d), d.String())
	}
}

func TestIsFixedNonTradingDay_KnownMonday(t *testing.T) {
	assert.True(t, IsFixedNonTradingDay(MustParse("114/12/08")))
	assert.False(t, IsFixedNonTradingDay(MustParse("114/12/09")))
}

func TestBefore(t *testing.T) {
	assert.True(t, MustParse("113/05/01").Before(MustParse("113/05/10")))
	assert.False(t, MustParse("113/05/10").Before(MustParse("113/05/01")))
	assert.False(t, MustParse("113/05/10").Before(MustParse("113/05/10")))
}

func TestFormatDateTime(t *testing.T) {
	loc := time.FixedZone("CST", 8*60*60)
	ts := time.Date(2025, time.December, 7, 16, 30, 5, 0, time.UTC)

	assert.Equal(t, "114/12/08 00:30:05", FormatDateTime(ts, loc))
	assert.Equal(t, "114/12/08", FormatDate(ts, loc))
}

func TestClock(t *testing.T) {
	loc := time.FixedZone("CST", 8*60*60)
	fc := FixedClock{T: time.Date(2025, time.December, 9, 23, 59, 0, 0, loc)}
	assert.Equal(t, "114/12/09", fc.Today().String())

	sc := NewSystemClock("Not/AZone")
	_, offset := sc.Now().Zone()
	assert.Equal(t, 8*60*60, offset)
}
