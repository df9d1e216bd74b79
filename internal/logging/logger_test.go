package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParsesLevel(t *testing.T) {
	logger := New("debug", "text")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger = New("error", "text")
	assert.Equal(t, logrus.ErrorLevel, logger.GetLevel())
}

func TestNewFallsBackToInfo(t *testing.T) {
	logger := New("not-a-level", "text")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestNewFormatters(t *testing.T) {
	logger := New("info", "json")
	_, ok := logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)

	logger = New("info", "text")
	text, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.True(t, text.FullTimestamp)
}
