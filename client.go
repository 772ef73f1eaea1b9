package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"copymatch/logger"
)

const daemonStartTimeout = 5 * time.Second

// Client is the editor-side process: it makes sure a daemon runs and then
// pipes its stdio channel to the daemon socket.
type Client struct {
	paths daemonPaths
}

func NewClient() *Client {
	return &Client{paths: defaultDaemonPaths()}
}

// Relay copies stdin to the daemon and the daemon's replies to stdout until
// either side closes.
func (c *Client) Relay(stdin io.Reader, stdout io.Writer) error {
	conn, err := net.Dial("unix", c.paths.socket)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		io.Copy(conn, stdin)
		// Half-close so the daemon sees EOF and can still flush its replies
		if uc, ok := conn.(*net.UnixConn); ok {
			uc.CloseWrite()
			return
		}
		conn.Close()
	}()

	_, err = io.Copy(stdout, conn)
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// EnsureDaemon spawns a daemon unless a live one owns the pid file
func (c *Client) EnsureDaemon() error {
	if pid := readPid(c.paths.pid); processAlive(pid) {
		logger.Debug("client: daemon already running with pid %d", pid)
		return nil
	}

	args := []string{os.Args[0], "nvim", "--daemon"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	logger.Debug("client: starting %v", args)

	proc, err := os.StartProcess(os.Args[0], args, &os.ProcAttr{
		Env:   os.Environ(),
		Files: []*os.File{nil, nil, nil},
	})
	if err != nil {
		return err
	}
	// The daemon outlives this process
	proc.Release()

	return c.waitReady(daemonStartTimeout)
}

// waitReady polls until the daemon has both recorded its pid and opened its
// socket.
func (c *Client) waitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if processAlive(readPid(c.paths.pid)) {
			if _, err := os.Stat(c.paths.socket); err == nil {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon not ready after %s", timeout)
}
