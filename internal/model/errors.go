package model

import "errors"

// ErrMalformedRecord marks input that does not fit the log record schema.
// Callers skip the offending row and report it.
var ErrMalformedRecord = errors.New("malformed record")
