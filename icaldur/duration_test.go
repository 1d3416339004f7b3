package icaldur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseICalDuration(t *testing.T) {
	tests := []struct {
		input       string
		want        Duration
		expectError error
	}{
		{input: "PT1H", want: Duration{Hours: 1}},
		{input: "PT1M", want: Duration{Minutes: 1}},
		{input: "PT1S", want: Duration{Seconds: 1}},
		{input: "PT1H30M", want: Duration{Hours: 1, Minutes: 30}},
		{input: "PT1H30M1S", want: Duration{Hours: 1, Minutes: 30, Seconds: 1}},
		{input: "P15DT5H0M20S", want: Duration{Days: 15, Hours: 5, Minutes: 0, Seconds: 20}},
		{input: "+P15DT5H0M20S", want: Duration{Days: 15, Hours: 5, Minutes: 0, Seconds: 20}},
		{input: "-P15DT5H0M20S", want: Duration{Negative: true, Days: 15, Hours: 5, Minutes: 0, Seconds: 20}},
		{input: "P2W", want: Duration{Weeks: 2}},
		{input: "", expectError: ErrEmpty},
		{input: "+Q15DT5H0M20S", expectError: ErrBadPrefix},
		{input: "+P15DT5H0M20G", expectError: ErrUnexpectedChar},
		{input: "+P15DT5H0M20", expectError: ErrMissingUnit},
		{input: "+P15DT5H0M20S20S", expectError: ErrDuplicateUnit},
	}
	for _, test := range tests {
		got, err := ParseICalDuration(test.input)
		if test.expectError != nil {
			assert.ErrorIs(t, err, test.expectError)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, test.want, got)
	}
}

func TestDurationRoundTrip(t *testing.T) {
	inputs := []string{"PT1H", "PT1H30M1S", "P15DT5H0M20S", "-P15DT5H0M20S", "P2W"}
	for _, in := range inputs {
		d, err := ParseICalDuration(in)
		assert.NoError(t, err)
		assert.Equal(t, in, d.String())
	}
}

func TestAsTimeDuration(t *testing.T) {
	d := Duration{Days: 15, Hours: 5, Seconds: 20}
	assert.Equal(t, time.Hour*24*15+time.Hour*5+time.Second*20, d.AsTimeDuration())

	neg := Duration{Negative: true, Hours: 1}
	assert.Equal(t, -time.Hour, neg.AsTimeDuration())
}

func TestFromTimeDuration(t *testing.T) {
	d := FromTimeDuration(time.Hour*24*2 + time.Hour*3 + time.Minute*4 + time.Second*5)
	assert.Equal(t, Duration{Days: 2, Hours: 3, Minutes: 4, Seconds: 5}, d)

	neg := FromTimeDuration(-time.Hour)
	assert.Equal(t, Duration{Negative: true, Hours: 1}, neg)
}

func BenchmarkParseICalDuration(b *testing.B) {
	for b.Loop() {
		_, err := ParseICalDuration("P15DT5H0M20S")
		if err != nil {
			b.Fatal(err)
		}
	}
}
