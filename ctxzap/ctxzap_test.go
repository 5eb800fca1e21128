package ctxzap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestExtract(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = With(ctx, "guild_id", "1")
	Extract(ctx).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Message)
	assert.Equal(t, "1", entries[0].ContextMap()["guild_id"])
}

func TestExtractEmpty(t *testing.T) {
	log := Extract(context.Background())

	require.NotNil(t, log)
	assert.NotPanics(t, func() { log.Info("dropped") })
}
