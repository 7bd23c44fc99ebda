package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	buf := new(bytes.Buffer)

	logger, err := New("debug", FormatJSON, buf)
	require.NoError(t, err)
	require.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger.Info().Str("remote", "127.0.0.1:1").Msg("client connected")
	require.Contains(t, buf.String(), `"message":"client connected"`)
	require.Contains(t, buf.String(), `"remote":"127.0.0.1:1"`)
}

func TestNew_ConsoleDefaultLevel(t *testing.T) {
	buf := new(bytes.Buffer)

	logger, err := New("", "", buf)
	require.NoError(t, err)
	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger.Debug().Msg("hidden")
	require.Empty(t, buf.String())

	logger.Info().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("loud", FormatJSON, nil)
	require.ErrorContains(t, err, `invalid log level "loud"`)

	_, err = New("info", "xml", nil)
	require.EqualError(t, err, `invalid log format "xml"`)
}

func TestSetup(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev }()

	buf := new(bytes.Buffer)
	require.NoError(t, Setup("warn", FormatJSON, buf))
	require.Equal(t, zerolog.WarnLevel, Logger.GetLevel())

	require.Error(t, Setup("info", "xml", buf))
	require.Equal(t, zerolog.WarnLevel, Logger.GetLevel())
}
