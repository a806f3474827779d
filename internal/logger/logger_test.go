package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"", "local", "dev", "prod"} {
		l, err := NewLogger(env, "")
		require.NoError(t, err, env)
		require.NotNil(t, l)
	}
}

func TestNewLogger_Level(t *testing.T) {
	l, err := NewLogger("local", "error")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewLogger_Errors(t *testing.T) {
	_, err := NewLogger("staging", "")
	assert.Error(t, err)

	_, err = NewLogger("local", "loud")
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	ctx := ContextWithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
