// Package stdio provides the line-delimited stdio transport for the
// mediated tool proxy.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"

	"github.com/vaultgate/vaultgate/internal/proxy"
)

// Transport reads newline-delimited JSON-RPC requests from a reader and
// writes one response line per request to a writer, dispatching each
// through a *proxy.Server.
type Transport struct {
	server *proxy.Server
}

// NewTransport wraps server in a stdio transport.
func NewTransport(server *proxy.Server) *Transport {
	return &Transport{server: server}
}

// Start runs the transport over the process's stdin and stdout. It blocks
// until ctx is cancelled or stdin is closed.
func (t *Transport) Start(ctx context.Context) error {
	return t.Run(ctx, os.Stdin, os.Stdout)
}

// Run reads lines from r and writes responses to w until r is exhausted or
// ctx is cancelled. Blank lines are ignored.
func (t *Transport) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)

	lines := make(chan []byte)
	scanDone := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				scanDone <- ctx.Err()
				return
			}
		}
		scanDone <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanDone
			}
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			resp := t.server.HandleLine(line)
			if _, err := w.Write(append(resp, '\n')); err != nil {
				return err
			}
		}
	}
}

// Close releases the transport's resources. Stdio has none to release.
func (t *Transport) Close() error {
	return nil
}
