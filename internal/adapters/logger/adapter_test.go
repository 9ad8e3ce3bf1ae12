package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockLogger implements Logger interface for testing.
type mockLogger struct {
	infoCalled  bool
	debugCalled bool
	warnCalled  bool
	errorCalled bool
	lastMsg     string
	lastFields  map[string]any
	lastErr     error
}

func (m *mockLogger) Info(_ context.Context, msg string, fields map[string]any) {
	m.infoCalled = true
	m.lastMsg = msg
	m.lastFields = fields
}

func (m *mockLogger) Debug(_ context.Context, msg string, fields map[string]any) {
	m.debugCalled = true
	m.lastMsg = msg
	m.lastFields = fields
}

func (m *mockLogger) Warn(_ context.Context, msg string, fields map[string]any) {
	m.warnCalled = true
	m.lastMsg = msg
	m.lastFields = fields
}

func (m *mockLogger) Error(_ context.Context, msg string, err error, fields map[string]any) {
	m.errorCalled = true
	m.lastMsg = msg
	m.lastErr = err
	m.lastFields = fields
}

func TestNewZapAdapter(t *testing.T) {
	mock := &mockLogger{}
	adapter := NewZapAdapter(mock)

	assert.NotNil(t, adapter)
}

func TestZapAdapter_Info(t *testing.T) {
	mock := &mockLogger{}
	adapter := NewZapAdapter(mock)
	ctx := context.Background()
	fields := map[string]any{"key": "value"}

	adapter.Info(ctx, "test message", fields)

	assert.True(t, mock.infoCalled)
	assert.Equal(t, "test message", mock.lastMsg)
	assert.Equal(t, fields, mock.lastFields)
}

func TestZapAdapter_Debug(t *testing.T) {
	mock := &mockLogger{}
	adapter := NewZapAdapter(mock)
	ctx := context.Background()
	fields := map[string]any{"debug": true}

	adapter.Debug(ctx, "debug message", fields)

	assert.True(t, mock.debugCalled)
	assert.Equal(t, "debug message", mock.lastMsg)
	assert.Equal(t, fields, mock.lastFields)
}

func TestZapAdapter_Warn(t *testing.T) {
	mock := &mockLogger{}
	adapter := NewZapAdapter(mock)
	ctx := context.Background()
	fields := map[string]any{"warning": "test"}

	adapter.Warn(ctx, "warn message", fields)

	assert.True(t, mock.warnCalled)
	assert.Equal(t, "warn message", mock.lastMsg)
	assert.Equal(t, fields, mock.lastFields)
}

func TestZapAdapter_Error(t *testing.T) {
	mock := &mockLogger{}
	adapter := NewZapAdapter(mock)
	ctx := context.Background()
	testErr := assert.AnError
	fields := map[string]any{"error_context": "test"}

	adapter.Error(ctx, "error message", testErr, fields)

	assert.True(t, mock.errorCalled)
	assert.Equal(t, "error message", mock.lastMsg)
	assert.Equal(t, testErr, mock.lastErr)
	assert.Equal(t, fields, mock.lastFields)
}

func TestZapAdapter_Component(t *testing.T) {
	mock := &mockLogger{}
	adapter := NewZapAdapter(mock).Component("locator")

	adapter.Info(context.Background(), "searching for dependency", map[string]any{"name": "widget"})

	assert.Equal(t, map[string]any{"component": "locator", "name": "widget"}, mock.lastFields)
}

func TestZapAdapter_With_CallSiteFieldsWin(t *testing.T) {
	mock := &mockLogger{}
	adapter := NewZapAdapter(mock).With(map[string]any{"url": "base", "run": 1})

	adapter.Warn(context.Background(), "fetch failed", map[string]any{"url": "override"})

	assert.Equal(t, map[string]any{"url": "override", "run": 1}, mock.lastFields)
}

func TestZapAdapter_With_DoesNotMutateParent(t *testing.T) {
	mock := &mockLogger{}
	parent := NewZapAdapter(mock).With(map[string]any{"a": 1})
	_ = parent.With(map[string]any{"b": 2})

	parent.Debug(context.Background(), "msg", nil)

	assert.Equal(t, map[string]any{"a": 1}, mock.lastFields)
}

func TestZapAdapter_Error_WithComponent(t *testing.T) {
	mock := &mockLogger{}
	adapter := NewZapAdapter(mock).Component("git")

	adapter.Error(context.Background(), "clone failed", assert.AnError, nil)

	assert.True(t, mock.errorCalled)
	assert.Equal(t, assert.AnError, mock.lastErr)
	assert.Equal(t, map[string]any{"component": "git"}, mock.lastFields)
}
