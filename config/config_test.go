package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/handlekit/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadOptional_Missing(t *testing.T) {
	cfg, err := LoadOptional(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Disposal.BindOnInstall())
	assert.Empty(t, cfg.Disposal.Options())
}

func TestLoadOptional_File(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
log:
  level: debug
  development: true
engine:
  name: bench
  memory_limit_pages: 4
disposal:
  drain_on_install: false
  max_batch: 32
`)

	cfg, err := LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, "bench", cfg.Engine.Name)
	assert.Equal(t, uint32(4), cfg.Engine.MemoryLimitPages)
	assert.False(t, cfg.Disposal.BindOnInstall())
	assert.Equal(t, 32, cfg.Disposal.MaxBatch)
	assert.Len(t, cfg.Disposal.Options(), 1)

	lib := cfg.Engine.Library()
	assert.Equal(t, "bench", lib.Name)
	assert.Equal(t, uint32(4), lib.MemoryLimitPages)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, os.ErrNotExist))

	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, errors.PhaseConfig, e.Phase)
	assert.Equal(t, errors.KindNotFound, e.Kind)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		kind errors.Kind
	}{
		{"bad yaml", "log: [", errors.KindInvalidData},
		{"bad level", "log:\n  level: loud\n", errors.KindInvalidInput},
		{"bad encoding", "log:\n  encoding: xml\n", errors.KindInvalidInput},
		{"negative batch", "disposal:\n  max_batch: -1\n", errors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			var e *errors.Error
			require.True(t, stderrors.As(err, &e))
			assert.Equal(t, errors.PhaseConfig, e.Phase)
			assert.Equal(t, tt.kind, e.Kind)
		})
	}
}

func TestLoadOptional_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "engine: [")

	_, err := LoadOptional(dir)
	require.Error(t, err)
	assert.False(t, stderrors.Is(err, os.ErrNotExist))
}

func TestResolve_GuestName(t *testing.T) {
	t.Run("from module path", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "go.mod", "module example.com/acme/widgets/v2\n\ngo 1.24\n")

		cfg, err := Resolve(dir)
		require.NoError(t, err)
		assert.Equal(t, "widgets-guest", cfg.Engine.Name)
	})

	t.Run("no module", func(t *testing.T) {
		cfg, err := Resolve(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, DefaultGuestName, cfg.Engine.Name)
	})

	t.Run("explicit name wins", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "go.mod", "module example.com/acme\n")
		writeFile(t, dir, FileName, "engine:\n  name: ' custom '\n")

		cfg, err := Resolve(dir)
		require.NoError(t, err)
		assert.Equal(t, "custom", cfg.Engine.Name)
	})
}

func TestLogConfig_Build(t *testing.T) {
	logger, err := LogConfig{Level: "warn", Encoding: "json"}.Build()
	require.NoError(t, err)
	defer func() { _ = logger.Sync() }()

	assert.False(t, logger.Core().Enabled(-1))
	assert.True(t, logger.Core().Enabled(1))

	dev, err := LogConfig{Development: true}.Build()
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(-1))

	_, err = LogConfig{Level: "loud"}.Build()
	assert.Error(t, err)
}
