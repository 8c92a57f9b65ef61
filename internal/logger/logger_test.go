package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("nonexistent.yaml")
	require.NoError(t, err)

	assert.Equal(t, "INFO", config.Level)
	assert.True(t, config.ConsoleEnabled)
	assert.Equal(t, "text", config.ConsoleFormat)
	assert.False(t, config.FileEnabled)
	assert.Equal(t, "logs/labyrinthd.log", config.FilePath)
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logging.yaml")
	yamlContent := `logging:
  level: DEBUG
  console_enabled: true
  console_format: json
  file_enabled: true
  file_path: test.log
  file_max_size_mb: 20
  file_compress: true
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", config.Level)
	assert.Equal(t, "json", config.ConsoleFormat)
	assert.True(t, config.FileEnabled)
	assert.Equal(t, "test.log", config.FilePath)
	assert.Equal(t, 20, config.FileMaxSizeMB)
	assert.Equal(t, 5, config.FileMaxBackups)
	assert.True(t, config.FileCompress)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("LOG_CONSOLE_FORMAT", "json")
	t.Setenv("LOG_FILE_ENABLED", "true")
	t.Setenv("LOG_FILE_PATH", "/custom/path.log")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "ERROR", config.Level)
	assert.Equal(t, "json", config.ConsoleFormat)
	assert.True(t, config.FileEnabled)
	assert.Equal(t, "/custom/path.log", config.FilePath)
}

func TestInitializeWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "labyrinthd.log")
	config := DefaultConfig()
	config.ConsoleEnabled = false
	config.FileEnabled = true
	config.FilePath = path

	require.NoError(t, Initialize(config))
	t.Cleanup(func() { SetLogger(nil) })

	Info("Labyrinth generated", "size", 6)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Labyrinth generated"`)
	assert.Contains(t, string(data), `"size":6`)
}

func TestTextFormatFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(newHandler(&buf, "text", slog.LevelInfo)))
	t.Cleanup(func() { SetLogger(nil) })

	Info("Test message", "key", "value")
	Debug("This should not appear")

	output := buf.String()
	assert.Contains(t, output, "Test message")
	assert.Contains(t, output, "key=value")
	assert.NotContains(t, output, "This should not appear")
}

func TestAlwaysBypassesLogLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(newHandler(&buf, "text", slog.LevelError)))
	t.Cleanup(func() { SetLogger(nil) })

	Debug("Debug message")
	Info("Info message")
	Warning("Warning")
	Error("Error message")
	Always("Always message")

	output := buf.String()
	assert.NotContains(t, output, "Debug message")
	assert.NotContains(t, output, "Info message")
	assert.NotContains(t, output, "Warning")
	assert.Contains(t, output, "Error message")
	assert.Contains(t, output, "Always message")
	assert.Contains(t, output, "level=ALWAYS")
}

func TestFormattedLogging(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(newHandler(&buf, "text", slog.LevelDebug)))
	t.Cleanup(func() { SetLogger(nil) })

	Debugf("Debug: %d + %d = %d", 1, 2, 3)
	Infof("Info: %s", "test")
	Warningf("Warning: %.2f%%", 99.95)
	Errorf("Error: %v", "failed")
	Alwaysf("Always: %s %d", "count", 5)

	output := buf.String()
	assert.Contains(t, output, "Debug: 1 + 2 = 3")
	assert.Contains(t, output, "Info: test")
	assert.Contains(t, output, "Warning: 99.95%")
	assert.Contains(t, output, "Error: failed")
	assert.Contains(t, output, "Always: count 5")
}

func TestMultiHandler(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	SetLogger(slog.New(newMultiHandler(
		newHandler(&buf1, "text", slog.LevelInfo),
		newHandler(&buf2, "json", slog.LevelWarn),
	)))
	t.Cleanup(func() { SetLogger(nil) })

	Info("Multi-handler test", "field", "value")
	Warning("Both see this")

	assert.Contains(t, buf1.String(), "Multi-handler test")
	assert.Contains(t, buf1.String(), "field=value")
	assert.NotContains(t, buf2.String(), "Multi-handler test")
	assert.Contains(t, buf2.String(), `"msg":"Both see this"`)
}

func TestNilLogger(t *testing.T) {
	SetLogger(nil)

	assert.NotPanics(t, func() {
		Debug("debug")
		Info("info")
		Warning("warning")
		Error("error")
		Always("always")
		Slog().Info("discarded")
	})
}
