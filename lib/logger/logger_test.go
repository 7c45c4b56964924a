package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetupFile(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)
	defer logrus.SetLevel(logrus.InfoLevel)

	dir := t.TempDir()
	err := Setup(&Settings{Path: dir, Name: "dbconsole", Ext: "log", TimeFormat: "2006-01-02", Level: "debug"})
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	Info("hello from test")

	matches, err := filepath.Glob(filepath.Join(dir, "dbconsole_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	require.Contains(t, string(data), "hello from test")
}

func TestSetupBadLevel(t *testing.T) {
	require.Error(t, Setup(&Settings{Level: "loud"}))
}
