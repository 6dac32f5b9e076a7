package syncws

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	base := newWriterLogger(&buf, levelInfo)
	log := base.WithField("client", "c1").WithField("attempt", 2)

	log.Debug("hidden")
	log.Infof("connected to %s", "example.com")
	base.Warnln("plain")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "INFO [attempt=2, client=c1]: connected to example.com"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "WARN: plain"), lines[1])
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core)).WithField("client", "c1")

	log.Debugf("=> [DATA] %d bytes", 5)
	log.Error("boom")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "=> [DATA] 5 bytes", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "c1", entries[1].ContextMap()["client"])
}

func TestZapLogger_Nil(t *testing.T) {
	assert.NotPanics(t, func() {
		NewZapLogger(nil).Info("dropped")
	})
}
