package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmigrate/core/internal/ports"
)

func TestLoggerWritesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Writer: &buf, Level: "debug"})
	require.NoError(t, err)

	ctx := ports.WithCorrelationID(context.Background(), "run-123")
	logger.Info(ctx, "run started", "component", "controller")

	assert.Contains(t, buf.String(), "run-123")
	assert.Contains(t, buf.String(), "run started")
}

func TestLoggerWithAppendsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Writer: &buf, Level: "debug"})
	require.NoError(t, err)

	scoped := logger.With("component", "executor")
	scoped.Warn(context.Background(), "operation retrying")

	assert.Contains(t, buf.String(), "executor")
}

func TestNoOpLoggerDiscardsEntries(t *testing.T) {
	logger := NewNoOpLogger()
	assert.NotPanics(t, func() {
		logger.Info(context.Background(), "ignored")
		logger.With("k", "v").Error(context.Background(), "ignored too")
	})
}
