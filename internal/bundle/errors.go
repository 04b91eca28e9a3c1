package bundle

import "errors"

var (
	ErrInvalid = errors.New("invalid bundle config")
	ErrNoIndex = errors.New("bundle has no index.html")
)
