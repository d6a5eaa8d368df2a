package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "github.com/thirdweb-dev/substrate-sink/configs"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel(""))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("loud"))
}

func TestNewLogger_TagsSinkAndComponent(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)
	saved := log.Logger
	defer func() { log.Logger = saved }()

	var buf bytes.Buffer
	log.Logger = NewLogger(&buf, &config.LogConfig{Level: "info"}, config.SinkTypeArchive)

	logger := Component("archive")
	logger.Debug().Msg("dropped")
	logger.Info().Int("blocks", 3).Msg("Uploaded archived blocks")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "archive", entry["sink"])
	assert.Equal(t, "archive", entry["component"])
	assert.Equal(t, "info", entry["level"])
	assert.EqualValues(t, 3, entry["blocks"])
	assert.Contains(t, entry, "caller")
}
