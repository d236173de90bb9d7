package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePercentage(t *testing.T) {
	cases := []struct {
		in    string
		value float64
		sign  RangeSign
	}{
		{"50%", 50, RangeNone},
		{"< 10%", 10, RangeLessThan},
		{"<10%", 10, RangeLessThan},
		{"≥ 80%", 80, RangeGreaterThan},
		{"≥80%", 80, RangeGreaterThan},
		{" 45% ", 45, RangeNone},
	}
	for _, tc := range cases {
		value, sign, err := ParsePercentage(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.value, value, tc.in)
		assert.Equal(t, tc.sign, sign, tc.in)
	}
}

func TestParsePercentageRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "high", "%"} {
		_, _, err := ParsePercentage(in)
		assert.Error(t, err, in)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("06:07")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{6, 7}, tod)
	assert.Equal(t, "06:07", tod.String())
}

func TestParseTimeOfDayRejectsOutOfRange(t *testing.T) {
	for _, in := range []string{"24:00", "12:60", "-1:30", "noon"} {
		_, err := ParseTimeOfDay(in)
		assert.Error(t, err, in)
	}
}

func TestRangeSignRoundTrip(t *testing.T) {
	for _, sign := range []RangeSign{RangeNone, RangeGreaterThan, RangeLessThan} {
		assert.Equal(t, sign, RangeSignFromString(sign.String()))
	}
	assert.Equal(t, RangeNone, RangeSignFromString("bogus"))
}

func TestWarningCatalogNames(t *testing.T) {
	w, ok := ParseWarningType(" wrainb ")
	require.True(t, ok)
	assert.Equal(t, WarnRainBlack, w)
	assert.Equal(t, "Black Rainstorm Warning Signal", w.NameEn())
	assert.Equal(t, "黑色暴雨警告信號", w.NameZh())

	_, ok = ParseWarningType("NOTAWARNING")
	assert.False(t, ok)
}

func TestIconCatalog(t *testing.T) {
	icon, ok := IconByCode(65)
	require.True(t, ok)
	assert.Equal(t, "pic65", icon.Name())
	assert.Equal(t, "Thunderstorms", icon.DescriptionEn())

	byName, ok := IconByName("pic65")
	require.True(t, ok)
	assert.Equal(t, icon, byName)

	_, ok = IconByCode(1)
	assert.False(t, ok)
}
