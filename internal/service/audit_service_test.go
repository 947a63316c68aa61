package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/userauth-service/internal/events"
)

func TestAuditServiceRecordsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, zap.New(core)).RegisterHandlers()

	event := events.NewEvent(events.EventTaskCreated, 7, events.TaskPayload{TaskID: 3, Title: "write tests"})
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	entries := logs.FilterMessage(string(events.EventTaskCreated)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "audit", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, event.ID, fields["event_id"])
	assert.EqualValues(t, 7, fields["user_id"])
}
