package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/youhavemail/yhm/internal/config"
	"github.com/youhavemail/yhm/internal/core"
	"github.com/youhavemail/yhm/internal/utils"
)

// DefaultServerPort is where port discovery starts when none is configured.
const DefaultServerPort = 1750

// findAvailablePort tries ports starting from 'start' until one is available
func findAvailablePort(host string, start int) (int, net.Listener) {
	for port := start; port < start+100; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return port, ln
		}
	}
	return 0, nil
}

// listen binds addr. Port 0 means the first free port from DefaultServerPort.
func listen(addr string) (int, net.Listener, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid port in %q", addr)
	}

	if port == 0 {
		port, ln := findAvailablePort(host, DefaultServerPort)
		if ln == nil {
			return 0, nil, errors.New("could not find available port")
		}
		return port, ln, nil
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return 0, nil, fmt.Errorf("could not bind to port %d: %w", port, err)
	}
	return port, ln, nil
}

func portFilePath() string {
	return filepath.Join(config.GetRuntimeDir(), "port")
}

func pidFilePath() string {
	return filepath.Join(config.GetRuntimeDir(), "pid")
}

// saveActivePort writes the active port for CLI and connect discovery
func saveActivePort(port int) {
	if err := os.WriteFile(portFilePath(), []byte(strconv.Itoa(port)), 0o644); err != nil {
		utils.Debug("Error writing port file: %v", err)
	}
	utils.Debug("HTTP server listening on port %d", port)
}

// removeActivePort cleans up the port file on exit
func removeActivePort() {
	if err := os.Remove(portFilePath()); err != nil && !os.IsNotExist(err) {
		utils.Debug("Error removing port file: %v", err)
	}
}

// readActivePort reads the port from the port file
func readActivePort() int {
	data, err := os.ReadFile(portFilePath())
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return port
}

func savePID() {
	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		utils.Debug("Error writing PID file: %v", err)
	}
}

func removePID() {
	if err := os.Remove(pidFilePath()); err != nil && !os.IsNotExist(err) {
		utils.Debug("Error removing PID file: %v", err)
	}
}

func readPID() int {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0
	}
	pid, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return pid
}

// discoverDaemon returns a connected remote service when a local daemon
// answers on the advertised port.
func discoverDaemon(ctx context.Context) (*core.RemotePollIntervalService, bool) {
	port := readActivePort()
	if port <= 0 {
		return nil, false
	}

	remote := core.NewRemotePollIntervalService(fmt.Sprintf("http://127.0.0.1:%d", port))
	if _, err := remote.Refresh(ctx); err != nil {
		utils.Debug("Ignoring stale port file (%d): %v", port, err)
		_ = remote.Shutdown()
		return nil, false
	}
	return remote, true
}

// openService prefers a running daemon and falls back to the local store.
func openService(ctx context.Context) (core.PollIntervalService, func(), error) {
	if remote, ok := discoverDaemon(ctx); ok {
		return remote, func() { _ = remote.Shutdown() }, nil
	}

	svc, cleanup, err := openLocalService(ctx)
	if err != nil {
		return nil, nil, err
	}
	return svc, cleanup, nil
}
