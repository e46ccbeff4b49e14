//go:build !windows

package main

import (
	"os"
	"syscall"
)

var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// SIGTSTP is consumed: the process flushes its state and keeps serving
// instead of stopping.
var suspendSignals = []os.Signal{syscall.SIGHUP, syscall.SIGTSTP}
