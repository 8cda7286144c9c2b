// Released under an MIT license. See LICENSE.

//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

// Package process handles the signals that end a session.
package process

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// Signals end a session when they arrive outside a prompt.
//
//nolint:gochecknoglobals
var Signals = []os.Signal{unix.SIGHUP, unix.SIGINT, unix.SIGTERM}

// Notify relays Signals to a returned channel until stop is called.
func Notify() (signals <-chan os.Signal, stop func()) {
	c := make(chan os.Signal, 1)

	signal.Notify(c, Signals...)

	return c, func() {
		signal.Stop(c)
	}
}

// ExitStatus returns the conventional exit status for a process ended by s.
func ExitStatus(s os.Signal) int {
	if n, ok := s.(unix.Signal); ok {
		return 128 + int(n)
	}

	return 1
}

// ID returns the process ID for the current process.
func ID() int {
	return unix.Getpid()
}
