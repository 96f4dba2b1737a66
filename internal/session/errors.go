package session

import "errors"

var (
	ErrCatalogUnavailable = errors.New("mission catalog unavailable")
	ErrMissionStartFailed = errors.New("mission start failed")
	ErrCommandFailed      = errors.New("command failed")
	ErrHintFailed         = errors.New("hint failed")
	ErrStatusUnavailable  = errors.New("session status unavailable")
)
