package transcript

import "errors"

// ErrInvalidDealer is returned when a dealer record is missing fields.
var ErrInvalidDealer = errors.New("invalid dealer info")
