package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Output: &buf})
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l.Debug("hidden")
	l.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud", Output: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestNew_WritesFileAndJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	l, err := New(Config{Level: "debug", OutputFile: path, JSONFormat: true, Output: &buf})
	require.NoError(t, err)
	l.WithField("repo", "demo").Debug("walking")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"repo":"demo"`)
	assert.Equal(t, buf.String(), string(data))
}

func TestNew_RotatesOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0644))

	l, err := New(Config{OutputFile: path, MaxSize: 32, Output: &bytes.Buffer{}})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	rotated, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Len(t, rotated, 64)
}
