package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, Init(Options{Level: "debug", Format: "json", Output: "file", File: path}))
	t.Cleanup(func() { _ = Init(Options{}) })

	l := GetAppLogger()
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	l.WithField("slug", "me").Info("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.Contains(t, string(data), `"slug":"me"`)
}

func TestInitRequiresFile(t *testing.T) {
	assert.Error(t, Init(Options{Output: "both"}))
}

func TestDefaultLogger(t *testing.T) {
	l, err := build(Options{Level: "nonsense"})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}
