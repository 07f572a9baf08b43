package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearKeys(t *testing.T) {
	t.Setenv("SEOUL_API_KEY", "")
	t.Setenv("GYEONGGI_API_KEY", "")
	t.Setenv("TAGO_API_KEY", "")
	seoulKey, gyeonggiKey, tagoKey = "", "", ""
}

func TestResolveKeysReportsAllMissing(t *testing.T) {
	clearKeys(t)

	_, _, _, err := resolveKeys()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEOUL_API_KEY")
	assert.Contains(t, err.Error(), "GYEONGGI_API_KEY")
	assert.Contains(t, err.Error(), "TAGO_API_KEY")
}

func TestResolveKeysPartialMissing(t *testing.T) {
	clearKeys(t)
	t.Setenv("SEOUL_API_KEY", "seoul-secret")
	tagoKey = "tago-secret"

	_, _, _, err := resolveKeys()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SEOUL_API_KEY")
	assert.Contains(t, err.Error(), "GYEONGGI_API_KEY")
	assert.NotContains(t, err.Error(), "TAGO_API_KEY")
}

func TestResolveKeysFlagsOverrideEnv(t *testing.T) {
	clearKeys(t)
	t.Setenv("SEOUL_API_KEY", "from-env")
	seoulKey = "from-flag"
	gyeonggiKey = "gg"
	tagoKey = "tg"

	seoul, gyeonggi, tago, err := resolveKeys()
	require.NoError(t, err)
	assert.Equal(t, "from-flag", seoul)
	assert.Equal(t, "gg", gyeonggi)
	assert.Equal(t, "tg", tago)
}

func TestNewCalculatorRejectsMissingKeys(t *testing.T) {
	clearKeys(t)

	_, err := newCalculator()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing API keys")
}
