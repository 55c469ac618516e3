package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, "8080", d.Port)
	assert.Equal(t, "INR", d.DisplayCurrency)
	assert.Equal(t, 20000, d.MaxImportRows)
	assert.Empty(t, d.JWTSecret)
	assert.Empty(t, d.SyncSchedule)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TJ_TEST_LIST", " http://a.example , ,http://b.example")
	t.Setenv("TJ_TEST_DURATION", "90s")
	t.Setenv("TJ_TEST_BAD_DURATION", "soon")
	t.Setenv("TJ_TEST_INT", "12")
	t.Setenv("TJ_TEST_BAD_INT", "twelve")

	assert.Equal(t, []string{"http://a.example", "http://b.example"}, getEnvAsList("TJ_TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, getEnvAsList("TJ_TEST_UNSET_LIST", []string{"x"}))
	assert.Equal(t, 90*time.Second, getEnvAsDuration("TJ_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, getEnvAsDuration("TJ_TEST_BAD_DURATION", time.Second))
	assert.Equal(t, 12, getEnvAsInt("TJ_TEST_INT", 1))
	assert.Equal(t, 1, getEnvAsInt("TJ_TEST_BAD_INT", 1))
	assert.Equal(t, "fallback", getEnv("TJ_TEST_UNSET", "fallback"))
}
