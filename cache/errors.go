package cache

import "errors"

// ErrInvalidConfiguration is returned by New when the options describe an
// impossible cache (non-positive size bound or negative age bound).
// Returned errors wrap it with the offending detail; test with errors.Is.
var ErrInvalidConfiguration = errors.New("cache: invalid configuration")
