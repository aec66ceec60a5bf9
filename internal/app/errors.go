package app

import "errors"

// ErrBadRequest marks caller errors: missing required fields or an
// unparsable timestamp. The HTTP layer maps it to a 400.
var ErrBadRequest = errors.New("bad request")
