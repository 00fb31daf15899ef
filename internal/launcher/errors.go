package launcher

import "errors"

// ErrNoCommand is returned when Launch is called without an agent command
// to execute.
var ErrNoCommand = errors.New("launcher: no agent command given")
