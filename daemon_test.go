package main

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copymatch.pid")

	assert.Equal(t, 0, readPid(path), "missing file")

	require.NoError(t, writePid(path, 4242))
	assert.Equal(t, 4242, readPid(path), "round trip")

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	assert.Equal(t, 0, readPid(path), "unparsable")

	require.NoError(t, os.WriteFile(path, []byte("17\n"), 0o644))
	assert.Equal(t, 17, readPid(path), "trailing newline")
}

func TestProcessAlive(t *testing.T) {
	assert.True(t, processAlive(os.Getpid()), "own process")
	assert.False(t, processAlive(0), "zero pid")
	assert.False(t, processAlive(-1), "negative pid")
}

func TestClientRelay(t *testing.T) {
	dir := t.TempDir()
	paths := daemonPaths{socket: filepath.Join(dir, "s.sock"), pid: filepath.Join(dir, "s.pid")}

	ln, err := net.Listen("unix", paths.socket)
	require.NoError(t, err)
	defer ln.Close()

	// Echo server standing in for the daemon
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(conn, conn)
	}()

	var out bytes.Buffer
	c := &Client{paths: paths}
	err = c.Relay(strings.NewReader("ping"), &out)

	assert.NoError(t, err)
	assert.Equal(t, "ping", out.String(), "echoed through the socket")
}

func TestClientRelayNoDaemon(t *testing.T) {
	c := &Client{paths: daemonPaths{socket: filepath.Join(t.TempDir(), "absent.sock")}}
	assert.Error(t, c.Relay(strings.NewReader(""), io.Discard))
}

func TestClientWaitReady(t *testing.T) {
	dir := t.TempDir()
	c := &Client{paths: daemonPaths{socket: filepath.Join(dir, "s.sock"), pid: filepath.Join(dir, "s.pid")}}

	assert.Error(t, c.waitReady(150*time.Millisecond), "nothing running")

	require.NoError(t, writePid(c.paths.pid, os.Getpid()))
	require.NoError(t, os.WriteFile(c.paths.socket, nil, 0o600))
	assert.NoError(t, c.waitReady(time.Second), "pid and socket present")
}
