package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("MOA_TEST_STR", "  value ")
	assert.Equal(t, "value", GetEnv("MOA_TEST_STR", "def"))

	t.Setenv("MOA_TEST_STR", "")
	assert.Equal(t, "def", GetEnv("MOA_TEST_STR", "def"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("MOA_TEST_INT", "42")
	assert.Equal(t, 42, GetEnvInt("MOA_TEST_INT", 1))

	t.Setenv("MOA_TEST_INT", "forty")
	assert.Equal(t, 1, GetEnvInt("MOA_TEST_INT", 1))
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("MOA_TEST_FLOAT", "0.5")
	assert.Equal(t, 0.5, GetEnvFloat("MOA_TEST_FLOAT", 0))

	t.Setenv("MOA_TEST_FLOAT", "x")
	assert.Equal(t, 2.0, GetEnvFloat("MOA_TEST_FLOAT", 2))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("MOA_TEST_BOOL", "TRUE")
	assert.True(t, GetEnvBool("MOA_TEST_BOOL", false))

	t.Setenv("MOA_TEST_BOOL", "0")
	assert.False(t, GetEnvBool("MOA_TEST_BOOL", true))

	t.Setenv("MOA_TEST_BOOL", "maybe")
	assert.True(t, GetEnvBool("MOA_TEST_BOOL", true))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("MOA_TEST_DUR", "90s")
	assert.Equal(t, 90*time.Second, GetEnvDuration("MOA_TEST_DUR", time.Second))

	t.Setenv("MOA_TEST_DUR", "soon")
	assert.Equal(t, time.Second, GetEnvDuration("MOA_TEST_DUR", time.Second))
}

func TestGetEnvTime(t *testing.T) {
	t.Setenv("MOA_TEST_AT", "14:05")
	at := GetEnvTime("MOA_TEST_AT", "06:00")
	assert.Equal(t, 14, at.Hour())
	assert.Equal(t, 5, at.Minute())

	t.Setenv("MOA_TEST_AT", "25:99")
	at = GetEnvTime("MOA_TEST_AT", "06:00")
	assert.Equal(t, 6, at.Hour())
	assert.Equal(t, 0, at.Minute())
}
