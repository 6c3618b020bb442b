package path

import "errors"

// ErrInvalidPath is returned by Parse and New when a path string or
// component sequence does not meet the grammar in the data model: absolute,
// separator-prefixed, with no empty components and no embedded separators.
var ErrInvalidPath = errors.New("invalid path")
