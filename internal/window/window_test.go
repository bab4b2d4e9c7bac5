package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/novaengine/nova/internal/config"
)

func TestHeadless(t *testing.T) {
	w := NewHeadless(config.Defaults().Window, zaptest.NewLogger(t))
	assert.False(t, w.Shown())
	assert.Equal(t, config.Defaults().Window, w.Config())

	w.Configure(config.WindowConfig{Title: "Pong", Width: 640, Height: 480})
	assert.Equal(t, "Pong", w.Config().Title)

	require.NoError(t, w.Show())
	assert.True(t, w.Shown())
	assert.Equal(t, 1, w.ShowCount())
	assert.NoError(t, w.Close())
}
