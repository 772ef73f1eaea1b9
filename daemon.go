package main

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"copymatch/checker"
	"copymatch/config"
	"copymatch/logger"

	"github.com/neovim/go-client/nvim"
)

// Idle periods before the daemon exits with no editor attached
const (
	idleFirst = 30 * time.Second
	idleAgain = 5 * time.Second
	idleDebug = time.Second
)

// daemonPaths locates the socket and pid file of the shared daemon
type daemonPaths struct {
	socket string
	pid    string
}

func defaultDaemonPaths() daemonPaths {
	dir := os.TempDir()
	if exe, err := os.Executable(); err == nil {
		dir = filepath.Dir(exe)
	}
	return daemonPaths{
		socket: filepath.Join(dir, "copymatch.sock"),
		pid:    filepath.Join(dir, "copymatch.pid"),
	}
}

// Daemon owns one Checker and serves every editor connected to its socket
type Daemon struct {
	cfg      config.Config
	checker  *checker.Checker
	paths    daemonPaths
	listener net.Listener
	clients  atomic.Int64
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewDaemon(cfg config.Config) (*Daemon, error) {
	chk, err := checker.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		cfg:     cfg,
		checker: chk,
		paths:   defaultDaemonPaths(),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start listens until Stop, a signal, or the idle timeout
func (d *Daemon) Start() error {
	defer d.checker.Close()

	if err := writePid(d.paths.pid, os.Getpid()); err != nil {
		logger.Warn("daemon: could not write pid file: %v", err)
	}
	defer removeFile(d.paths.pid)

	// A stale socket from a crashed daemon blocks Listen
	removeFile(d.paths.socket)
	listener, err := net.Listen("unix", d.paths.socket)
	if err != nil {
		return err
	}
	d.listener = listener
	defer removeFile(d.paths.socket)

	logger.Info("daemon: pid %d listening on %s (engine %s)", os.Getpid(), d.paths.socket, d.checker.EngineName())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		select {
		case s := <-sig:
			logger.Info("daemon: received %s", s)
			d.Stop()
		case <-d.ctx.Done():
		}
	}()

	go d.accept()
	go d.exitWhenIdle()

	<-d.ctx.Done()
	logger.Info("daemon: shutting down")
	return nil
}

func (d *Daemon) Stop() {
	if d.listener != nil {
		d.listener.Close()
	}
	d.cancel()
}

func (d *Daemon) accept() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				return
			}
			logger.Error("daemon: accept: %v", err)
			continue
		}
		n := d.clients.Add(1)
		logger.Debug("daemon: client connected (%d total)", n)
		go d.serve(conn)
	}
}

func (d *Daemon) serve(conn net.Conn) {
	defer func() {
		conn.Close()
		n := d.clients.Add(-1)
		logger.Debug("daemon: client disconnected (%d remaining)", n)
	}()

	client, err := nvim.New(conn, conn, conn, logger.Debug)
	if err != nil {
		logger.Error("daemon: nvim client: %v", err)
		return
	}

	if err := newSession(d.ctx, client, d.checker, d.cfg.Nvim).register(); err != nil {
		logger.Error("daemon: %v", err)
		return
	}

	if err := client.Serve(); err != nil && !errors.Is(err, io.EOF) && d.ctx.Err() == nil {
		logger.Warn("daemon: serve: %v", err)
	}
}

// exitWhenIdle stops the daemon once no client has been attached for a full
// idle period. The first period is longer so the spawning editor can connect.
func (d *Daemon) exitWhenIdle() {
	wait := idleFirst
	if d.cfg.Nvim.DebugImmediateShutdown {
		wait = idleDebug
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-timer.C:
		}

		if d.clients.Load() == 0 {
			logger.Info("daemon: no clients attached, exiting")
			d.Stop()
			return
		}
		if !d.cfg.Nvim.DebugImmediateShutdown {
			wait = idleAgain
		}
		timer.Reset(wait)
	}
}

func writePid(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644)
}

// readPid returns the pid recorded at path, 0 when missing or unreadable
func readPid(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

// processAlive reports whether pid names a live process
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 only probes for existence on Unix
	return p.Signal(syscall.Signal(0)) == nil
}

func removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("daemon: remove %s: %v", path, err)
	}
}
