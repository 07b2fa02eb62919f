package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestString_Default(t *testing.T) {
	t.Setenv("TUTOR_LIVE_TEST_STRING", "")
	assert.Equal(t, "fallback", String("TUTOR_LIVE_TEST_STRING", "fallback"))

	t.Setenv("TUTOR_LIVE_TEST_STRING", " value ")
	assert.Equal(t, "value", String("TUTOR_LIVE_TEST_STRING", "fallback"))
}

func TestInt(t *testing.T) {
	t.Setenv("TUTOR_LIVE_TEST_INT", "42")
	assert.Equal(t, 42, Int("TUTOR_LIVE_TEST_INT", 7))

	t.Setenv("TUTOR_LIVE_TEST_INT", "nope")
	assert.Equal(t, 7, Int("TUTOR_LIVE_TEST_INT", 7))

	t.Setenv("TUTOR_LIVE_TEST_INT", "-3")
	assert.Equal(t, 7, Int("TUTOR_LIVE_TEST_INT", 7))
}

func TestDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", time.Minute},
		{"90", 90 * time.Second},
		{"5s", 5 * time.Second},
		{"2m", 2 * time.Minute},
		{"garbage", time.Minute},
		{"-5s", time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			t.Setenv("TUTOR_LIVE_TEST_DURATION", tc.raw)
			assert.Equal(t, tc.want, Duration("TUTOR_LIVE_TEST_DURATION", time.Minute))
		})
	}
}
