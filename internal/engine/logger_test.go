package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoggerDefaultsToNop(t *testing.T) {
	SetLogger(nil)
	l := Logger()
	assert.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zap.ErrorLevel))
}

func TestSetLogger(t *testing.T) {
	dev := zap.NewExample()
	SetLogger(dev)
	t.Cleanup(func() { SetLogger(nil) })

	assert.Same(t, dev, Logger())
}
