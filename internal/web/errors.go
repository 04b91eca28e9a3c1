package web

import "errors"

var (
	ErrNoIndex   = errors.New("bundle has no index.html")
	ErrBadTarget = errors.New("invalid proxy target")
)
