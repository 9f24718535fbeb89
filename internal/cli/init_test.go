package cli

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneytracker/internal/config"
	"moneytracker/internal/log"
)

func TestSetupLoggerLevels(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, log.ComponentApp)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = SetupLogger(&config.Config{LogLevel: "loud"}, log.ComponentApp)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	logger := log.New(log.Config{Output: io.Discard})

	res, err := OpenBackend(ctx, &config.Config{
		DataBackend:  config.BackendSQLite,
		KVCodec:      "msgpack",
		SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db"),
	}, logger, nil)
	require.NoError(t, err)
	defer res.Close()
	require.NoError(t, res.Ping(ctx))
	assert.Nil(t, res.Publisher)

	_, err = OpenBackend(ctx, &config.Config{DataBackend: "floppy"}, logger, nil)
	require.Error(t, err)
}
