package wallclock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"08:30", 8*60 + 30, false},
		{"00:00", 0, false},
		{"23:59", 23*60 + 59, false},
		{" 10:00 ", 10 * 60, false},
		{"24:00", 0, true},
		{"10:60", 0, true},
		{"-1:30", 0, true},
		{"1030", 0, true},
		{"aa:bb", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			var pe *ParseError
			assert.True(t, errors.As(err, &pe), "input %q should yield ParseError", tt.input)
		} else {
			assert.NoError(t, err, "input %q", tt.input)
			assert.Equal(t, tt.want, got, "input %q", tt.input)
		}
	}
}

func TestNormalizeHour(t *testing.T) {
	// Hours 1-7 are always afternoon under the feed convention.
	for h := 1; h <= 7; h++ {
		assert.Equal(t, h+12, NormalizeHour(h))
	}

	// Midnight stays midnight.
	assert.Equal(t, 0, NormalizeHour(0))

	// 8 through 23 are unambiguous.
	for h := 8; h <= 23; h++ {
		assert.Equal(t, h, NormalizeHour(h))
	}
}

func TestMinutes(t *testing.T) {
	m, err := Minutes("01:00")
	assert.NoError(t, err)
	assert.Equal(t, 13*60, m, "01:00 means 13:00")

	m, err = Minutes("08:30")
	assert.NoError(t, err)
	assert.Equal(t, 8*60+30, m)

	_, err = Minutes("half past")
	assert.Error(t, err)
}

func TestDuration(t *testing.T) {
	// A canonical afternoon slot is exactly 90 minutes even though both
	// endpoints are written in the ambiguous 12-hour form.
	d, err := Duration("01:00", "02:30")
	assert.NoError(t, err)
	assert.Equal(t, 90, d)

	d, err = Duration("08:30", "10:00")
	assert.NoError(t, err)
	assert.Equal(t, 90, d)

	// Negative differences wrap across midnight.
	d, err = Duration("23:00", "00:30")
	assert.NoError(t, err)
	assert.Equal(t, 90, d)

	_, err = Duration("08:30", "??")
	assert.Error(t, err)
}

func TestDurationOrDefault(t *testing.T) {
	assert.Equal(t, 90, DurationOrDefault("01:00", "02:30"))
	assert.Equal(t, DefaultSessionMinutes, DurationOrDefault("bad", "02:30"))
	assert.Equal(t, DefaultSessionMinutes, DurationOrDefault("01:00", "bad"))
}

func TestOverlaps(t *testing.T) {
	// Strict overlap.
	assert.True(t, Overlaps("08:30", "10:00", "09:00", "09:30"))
	assert.True(t, Overlaps("09:00", "09:30", "08:30", "10:00"))

	// Touching at a boundary is not overlap.
	assert.False(t, Overlaps("08:30", "10:00", "10:00", "11:30"))
	assert.False(t, Overlaps("10:00", "11:30", "08:30", "10:00"))

	// Ambiguous hours are normalized before comparing: 01:00-02:30 is the
	// afternoon and does not overlap the real morning.
	assert.True(t, Overlaps("01:00", "02:30", "02:00", "03:00"))
	assert.False(t, Overlaps("01:00", "02:30", "08:30", "10:00"))

	// Unparseable endpoints overlap nothing.
	assert.False(t, Overlaps("??", "02:30", "01:00", "02:30"))
	assert.False(t, Overlaps("01:00", "02:30", "01:00", "??"))
}

func TestSlots(t *testing.T) {
	all := Slots()
	assert.Len(t, all, 6)

	// Normalized starts must be strictly increasing across the day.
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].StartMinutes, all[i-1].StartMinutes)
	}

	// Every slot is exactly 90 minutes.
	for _, s := range all {
		assert.Equal(t, 90, s.EndMinutes-s.StartMinutes, "slot %s", s.Label())
	}

	// Table values agree with the raw strings they were derived from.
	for _, s := range all {
		m, err := Minutes(s.Start)
		assert.NoError(t, err)
		assert.Equal(t, s.StartMinutes, m)
		m, err = Minutes(s.End)
		assert.NoError(t, err)
		assert.Equal(t, s.EndMinutes, m)
	}

	assert.Equal(t, "08:30 - 10:00", all[0].Label())
	assert.Equal(t, "04:00 - 05:30", all[5].Label())
}

func TestSlotAt(t *testing.T) {
	s, ok := SlotAt(0)
	assert.True(t, ok)
	assert.Equal(t, "08:30", s.Start)

	_, ok = SlotAt(-1)
	assert.False(t, ok)
	_, ok = SlotAt(SlotCount)
	assert.False(t, ok)
}

func TestSlotOrder(t *testing.T) {
	assert.Equal(t, 0, SlotOrder("08:30"))
	assert.Equal(t, 3, SlotOrder("01:00"))
	assert.Equal(t, 5, SlotOrder("04:00"))

	// Unknown starts sort after every canonical slot.
	assert.Equal(t, SlotCount, SlotOrder("09:15"))
	assert.Equal(t, SlotCount, SlotOrder(""))
}
