package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_SharedRunID(t *testing.T) {
	a, err := NewLogger("supervisor")
	require.NoError(t, err)
	defer a.Close()

	b, err := NewLogger("session-1")
	require.NoError(t, err)
	defer b.Close()

	assert.NotEmpty(t, a.RunID())
	assert.Equal(t, a.RunID(), b.RunID())
	assert.Equal(t, a.LogPath(), b.LogPath())
}

func TestLogger_CloseIsIdempotent(t *testing.T) {
	l, err := NewLogger("test")
	require.NoError(t, err)

	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}

func TestFallbackLogger_DoesNotPanic(t *testing.T) {
	l := newFallbackLogger("test", assert.AnError)
	l.Debugf("debug %d", 1)
	l.Infof("info")
	l.Warnf("warn")
	l.Errorf("error")
	assert.Empty(t, l.LogPath())
	assert.NoError(t, l.Close())
}
