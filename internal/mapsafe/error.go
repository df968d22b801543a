package mapsafe

import "errors"

// ErrMissing is returned by Lookup when the key is not present.
var ErrMissing = errors.New("key not present")
