package vault

import "errors"

// ErrUnsupportedVaultVersion is returned when the on-disk document's
// version field is not one this package understands.
var ErrUnsupportedVaultVersion = errors.New("vault: unsupported vault document version")

// ErrNotFound is returned by Get, GetByService, and Delete when no record
// matches.
var ErrNotFound = errors.New("vault: credential not found")
