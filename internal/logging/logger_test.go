package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New("production", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = New("development", "")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = New("production", "loud")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestGlobal(t *testing.T) {
	assert.NotNil(t, L())
	assert.NotNil(t, S())

	l := zap.NewNop()
	SetGlobal(l)
	assert.Same(t, l, L())
	assert.NotNil(t, WithContext(zap.String("k", "v")))
	Sync()
}
