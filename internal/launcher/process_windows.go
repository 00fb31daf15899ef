//go:build windows

package launcher

import "os"

// gracefulSignals returns the OS signals the launcher forwards to the
// wrapped agent. On Windows only os.Interrupt is reliably delivered;
// there is no SIGTERM.
func gracefulSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// forwardSignal relays termination to proc. Windows has no signal delivery
// to another process for anything but Ctrl+C in the same console group, so
// termination is forwarded as a hard kill.
func forwardSignal(proc *os.Process, _ os.Signal) error {
	return proc.Kill()
}
