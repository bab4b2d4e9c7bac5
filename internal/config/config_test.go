package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_OverridesDefaults(t *testing.T) {
	raw := []byte(`
[engine]
name = "Asteroids"

[window]
title = "Asteroids"
width = 800
height = 600
fullscreen = true

[job_system]
max_jobs = 64
execution_threads = 2

[graphics]
clear_color = [0.1, 0.2, 0.3, 1.0]

[loop]
frame_rate = "33ms"

[debug]
addr = "127.0.0.1:0"
`)
	cfg, err := Parse(raw, "test.toml")
	require.NoError(t, err)

	assert.Equal(t, "Asteroids", cfg.Engine.Name)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.True(t, cfg.Window.Fullscreen)
	assert.True(t, cfg.Window.Resizable, "unset keys keep defaults")
	assert.Equal(t, 64, cfg.JobSystem.MaxJobs)
	assert.Equal(t, 2, cfg.JobSystem.ExecutionThreads)
	assert.Equal(t, Color{0.1, 0.2, 0.3, 1.0}, cfg.Graphics.ClearColor)
	assert.Equal(t, 33*time.Millisecond, cfg.Loop.FrameRate)
	assert.Equal(t, "assets", cfg.Assets.Root)
	assert.Equal(t, "127.0.0.1:0", cfg.Debug.Addr)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "negative max jobs", raw: "[job_system]\nmax_jobs = -1\n"},
		{name: "negative threads", raw: "[job_system]\nexecution_threads = -2\n"},
		{name: "colour out of range", raw: "[graphics]\nclear_color = [0.0, 2.0, 0.0, 1.0]\n"},
		{name: "min above max", raw: "[window]\nmin_width = 900\nmax_width = 800\n"},
		{name: "zero frame rate", raw: "[loop]\nframe_rate = \"0s\"\n"},
		{name: "bad toml", raw: "[engine\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw), "bad.toml")
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\nname = \"Demo\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Demo", cfg.Engine.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultsAreValid(t *testing.T) {
	assert.NoError(t, Defaults().Validate())
}
