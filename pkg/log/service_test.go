package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	config "github.com/mwantia/gotagger/internal/config/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestParse(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   Debug,
		"INFO":    Info,
		"":        Info,
		"warning": Warn,
		" error ": Error,
		"FATAL":   Fatal,
		"bogus":   Info,
	}

	for input, want := range tests {
		assert.Equal(t, want, Parse(input), "input %q", input)
	}
}

func TestParseGormLevel(t *testing.T) {
	assert.Equal(t, logger.Info, ParseGormLevel("DEBUG"))
	assert.Equal(t, logger.Warn, ParseGormLevel("WARN"))
	assert.Equal(t, logger.Error, ParseGormLevel("ERROR"))
	assert.Equal(t, logger.Silent, ParseGormLevel("silent"))
}

func TestLoggerService_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerServiceWithWriter("agent", config.LogServerConfig{Level: "INFO", TimeFormat: "15:04"}, &buf)

	log.Debug("hidden")
	log.Info("opened %s", "photos")
	log.Named("api").Warn("slow")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "INFO  [agent] opened photos")
	assert.Contains(t, lines[1], "WARN  [agent/api] slow")
	assert.NotContains(t, buf.String(), "\033[")
}

func TestLoggerService_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerServiceWithWriter("", config.LogServerConfig{Level: "DEBUG", JSON: true}, &buf)

	log.Named("dataset").Error("failed: %d", 3)

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "dataset", entry["service"])
	assert.Equal(t, "failed: 3", entry["message"])
}
