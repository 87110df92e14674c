package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVersionInfo(t *testing.T) {
	orig := versionInfo
	defer func() { versionInfo = orig }()

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
	}{
		{
			name:      "set all values",
			version:   "1.0.0",
			commit:    "abc123",
			buildDate: "2024-01-15",
		},
		{
			name:      "set dev version",
			version:   "dev",
			commit:    "HEAD",
			buildDate: "unknown",
		},
		{
			name:      "set empty values",
			version:   "",
			commit:    "",
			buildDate: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersionInfo(tt.version, tt.commit, tt.buildDate)

			assert.Equal(t, tt.version, versionInfo.Version)
			assert.Equal(t, tt.commit, versionInfo.Commit)
			assert.Equal(t, tt.buildDate, versionInfo.BuildDate)
		})
	}
}

func TestGetAppIdentity(t *testing.T) {
	t.Run("returns nil before init", func(t *testing.T) {
		orig := appIdentity
		appIdentity = nil
		defer func() { appIdentity = orig }()

		assert.Nil(t, GetAppIdentity())
	})

	t.Run("set by config load", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.run("version"))

		id := GetAppIdentity()
		require.NotNil(t, id)
		assert.Equal(t, "gofirehose", id.BinaryName)
		assert.Equal(t, "GOFIREHOSE", id.EnvPrefix)
	})
}

func TestVersionCommand(t *testing.T) {
	orig := versionInfo
	defer func() { versionInfo = orig }()
	SetVersionInfo("1.2.3", "abc123", "2026-01-02")

	t.Run("short", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.run("version"))
		assert.Equal(t, "gofirehose 1.2.3\n", h.stdout.String())
	})

	t.Run("extended", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.run("version", "--extended"))
		out := h.stdout.String()
		assert.Contains(t, out, "commit:     abc123")
		assert.Contains(t, out, "built:      2026-01-02")
		assert.Contains(t, out, "gofulmen:")
		assert.Contains(t, out, "crucible:")
	})
}

func TestRoot_InvalidOutputFormat(t *testing.T) {
	h := newHarness(t)

	err := h.run("--output", "yaml", "stream", "list")
	require.Error(t, err)
	assert.Equal(t, exitInvalidArgument, exitCode(t, err))
	assert.Zero(t, h.api.callCount())
}
