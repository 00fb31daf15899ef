//go:build windows

package cmd

import "os"

// gracefulSignals returns the OS signals the proxy command listens for to
// trigger a graceful shutdown of the stdio transport. SIGTERM does not
// exist on Windows; only os.Interrupt is reliably delivered.
func gracefulSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
