package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelTrace, ParseLogLevel("trace"), "trace")
	assert.Equal(t, LogLevelDebug, ParseLogLevel(" DEBUG "), "debug")
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warning"), "warning")
	assert.Equal(t, LogLevelError, ParseLogLevel("error"), "error")
	assert.Equal(t, LogLevelInfo, ParseLogLevel("bogus"), "unknown falls back to info")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	ll := New(&buf, LogLevelWarn)

	ll.Info("hidden %d", 1)
	ll.Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden", "info below threshold")
	assert.Contains(t, out, "[WARN] shown 2", "warn logged")
}

func TestInstallRoutesPackageCalls(t *testing.T) {
	var buf bytes.Buffer
	Install(New(&buf, LogLevelDebug))
	defer Install(nil)

	Debug("compare %s", "a.txt")
	assert.Contains(t, buf.String(), "[DEBUG] compare a.txt", "package-level debug")
}

func TestTraceOnlyAtTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	Install(New(&buf, LogLevelInfo))
	defer Install(nil)

	Trace("quiet")()
	assert.Empty(t, buf.String(), "no trace output at info")

	SetGlobalLevel(LogLevelTrace)
	Trace("loud")()
	assert.Contains(t, buf.String(), "[TRACE] loud:", "trace output")
}

func TestFileTrimmedToMaxLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copymatch.log")
	ll, err := OpenFile(path, LogLevelInfo)
	require.NoError(t, err)

	for i := 0; i < MaxLogLines+10; i++ {
		ll.Info("line %d", i)
	}
	require.NoError(t, ll.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, MaxLogLines, len(lines), "line count")
	assert.True(t, strings.HasSuffix(lines[len(lines)-1], "line 5009"), "newest line kept")
}
