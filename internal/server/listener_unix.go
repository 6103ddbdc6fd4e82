//go:build linux || darwin

// Package server opens the HTTP listener, taking an inherited socket when the
// process was started by a socket-activating supervisor.
package server

import (
	"errors"
	"net"
	"os"
	"strconv"
)

// listenFDsStart is the first inherited descriptor (SD_LISTEN_FDS_START).
const listenFDsStart = 3

var errNoActivatedSocket = errors.New("socket activation requested but no valid LISTEN_FDS")

// GetListener returns the inherited socket when SOCKET_ACTIVATION=1, otherwise it
// listens on addr.
func GetListener(addr string) (net.Listener, error) {
	if os.Getenv("SOCKET_ACTIVATION") != "1" {
		return net.Listen("tcp", addr)
	}
	if !activatedForUs(os.Getenv("LISTEN_FDS"), os.Getenv("LISTEN_PID"), os.Getpid()) {
		return nil, errNoActivatedSocket
	}
	f := os.NewFile(uintptr(listenFDsStart), "listener")
	if f == nil {
		return nil, errNoActivatedSocket
	}
	defer f.Close()
	return net.FileListener(f)
}

// activatedForUs reports whether exactly one socket was passed to pid.
func activatedForUs(fds, pid string, self int) bool {
	if fds != "1" {
		return false
	}
	p, err := strconv.Atoi(pid)
	return err == nil && p == self
}
