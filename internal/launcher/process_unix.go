//go:build !windows

package launcher

import (
	"os"
	"syscall"
)

// gracefulSignals returns the OS signals the launcher forwards to the
// wrapped agent. On Unix: SIGINT (Ctrl+C) and SIGTERM (kill).
func gracefulSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

// forwardSignal relays sig to proc.
func forwardSignal(proc *os.Process, sig os.Signal) error {
	return proc.Signal(sig)
}
