package date

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	d, err := Parse("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", d.String())

	_, err = Parse("15/03/2026")
	require.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Day Date `json:"day"`
	}
	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2026-03-15"}`), &p))
	assert.Equal(t, New(2026, time.March, 15), p.Day)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2026-03-15"}`, string(out))
}

func TestZeroMarshalsAsNull(t *testing.T) {
	out, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	var d Date
	require.NoError(t, json.Unmarshal([]byte("null"), &d))
	assert.True(t, d.IsZero())
}

func TestOfTruncatesTime(t *testing.T) {
	d := Of(time.Date(2026, time.March, 15, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, New(2026, time.March, 15), d)
}

func TestDaysSince(t *testing.T) {
	a := New(2026, time.March, 15)
	assert.Equal(t, 31, a.DaysSince(New(2026, time.February, 12)))
	assert.Equal(t, 0, a.DaysSince(a))
}
