// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/caseforge-cli/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newTestSink(t *testing.T) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)
	return &bytes.Buffer{}
}

func TestInitialize(t *testing.T) {
	t.Run("console output is colorized", func(t *testing.T) {
		buf := newTestSink(t)
		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "ConsoleTest",
			Colors:      config.ColorConfig{Info: "green"},
		}, zapcore.AddSync(buf))

		GetLogger().Named("recorder").Info("session started")
		Sync()

		out := buf.String()
		assert.Contains(t, out, levelColors["green"]+"INFO"+colorReset)
		assert.Contains(t, out, "ConsoleTest.recorder.")
		assert.Contains(t, out, "session started")
	})

	t.Run("json output is structured", func(t *testing.T) {
		buf := newTestSink(t)
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "JSONTest"}, zapcore.AddSync(buf))

		GetLogger().Warn("capture skipped", zap.String("source", "binding"))
		Sync()

		var entry map[string]interface{}
		require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "JSONTest", entry["logger"])
		assert.Equal(t, "capture skipped", entry["msg"])
		assert.Equal(t, "binding", entry["source"])
	})

	t.Run("level filters entries", func(t *testing.T) {
		buf := newTestSink(t)
		Initialize(config.LoggerConfig{Level: "warn", Format: "json"}, zapcore.AddSync(buf))

		GetLogger().Info("dropped")
		Sync()
		assert.Empty(t, buf.String())
	})

	t.Run("file sink receives entries", func(t *testing.T) {
		buf := newTestSink(t)
		logFile := filepath.Join(t.TempDir(), "caseforge.log")
		Initialize(config.LoggerConfig{Level: "debug", Format: "json", LogFile: logFile, MaxSize: 1}, zapcore.AddSync(buf))

		GetLogger().Error("export failed")
		Sync()

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "export failed")
	})

	t.Run("only the first call wins", func(t *testing.T) {
		buf := newTestSink(t)
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"}, zapcore.AddSync(buf))
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "Second"}, zapcore.AddSync(buf))

		assert.Same(t, first, GetLogger())
		GetLogger().Info("hello")
		Sync()
		assert.Contains(t, buf.String(), "First")
		assert.NotContains(t, buf.String(), "Second")
	})
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	assert.Nil(t, globalLogger.Load(), "fallback must not be stored globally")
}
