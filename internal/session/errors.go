package session

import "errors"

// ErrNotClosed is returned by Open and ImportPlaintext when the store is
// not in the Closed state.
var ErrNotClosed = errors.New("session: store is not closed")

// ErrNotOpen is returned by Flush and Close when the store is not in the
// Open state.
var ErrNotOpen = errors.New("session: store is not open")

// ErrUnsupportedBlobVersion is returned when a vault file's version field
// is not one this package understands.
var ErrUnsupportedBlobVersion = errors.New("session: unsupported session blob version")
