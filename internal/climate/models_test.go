package climate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonth(t *testing.T) {
	days := 0
	for _, m := range Months() {
		days += m.Days()
		back, ok := MonthFromCode(m.Code())
		require.True(t, ok)
		assert.Equal(t, m, back)
	}
	assert.Equal(t, 365, days)
	assert.Equal(t, 28, Month(2).Days())
	assert.Equal(t, "SEP", Month(9).Code())

	assert.False(t, Month(0).Valid())
	assert.False(t, Month(13).Valid())
	assert.Zero(t, Month(13).Days())
	assert.Empty(t, Month(0).Code())

	_, ok := MonthFromCode("ANN")
	assert.False(t, ok)
}

func TestNormalsGetMissing(t *testing.T) {
	n := Normals{1: {Temperature: 20}}
	_, err := n.Get(1)
	assert.NoError(t, err)

	_, err = n.Get(2)
	assert.ErrorIs(t, err, ErrDataMissing)
	assert.Contains(t, err.Error(), "FEB")
	assert.False(t, n.Complete())
}

func TestParseLocations(t *testing.T) {
	locs, err := ParseLocations(" 10.0, 76.25 ; -33.9,151.2;")
	require.NoError(t, err)
	assert.Equal(t, []Location{{Latitude: 10, Longitude: 76.25}, {Latitude: -33.9, Longitude: 151.2}}, locs)

	locs, err = ParseLocations("")
	require.NoError(t, err)
	assert.Empty(t, locs)

	for _, bad := range []string{"10", "a,b", "10,x", "95,0", "0,181"} {
		_, err := ParseLocations(bad)
		assert.Error(t, err, bad)
	}
}
