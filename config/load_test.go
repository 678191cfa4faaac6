package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Dialing.MaxCallsPerHour)
	assert.Equal(t, 3, cfg.Dialing.MinDelayMinutes)
	assert.Equal(t, 10, cfg.Dialing.MaxDelayMinutes)
	assert.Equal(t, 9, cfg.Dialing.CallingStartHour)
	assert.Equal(t, 18, cfg.Dialing.CallingEndHour)
	assert.Equal(t, 3, cfg.Dialing.QueueMaxAttempts)
	assert.Equal(t, 45.0, cfg.Screening.QualificationThreshold)
	assert.Equal(t, 3, cfg.Callback.MaxAttempts)
	assert.Equal(t, 120, cfg.Assessment.ScheduleDelaySeconds)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoadCaches(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recruitpulse.toml")
	content := `
[dialing]
max_calls_per_hour = 4
calling_start_hour = 10

[screening]
qualification_threshold = 60.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Dialing.MaxCallsPerHour)
	assert.Equal(t, 10, cfg.Dialing.CallingStartHour)
	assert.Equal(t, 60.0, cfg.Screening.QualificationThreshold)
	// Untouched keys fall back to defaults
	assert.Equal(t, 18, cfg.Dialing.CallingEndHour)
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
