package source

import "errors"

var (
	ErrNoBaseURL       = errors.New("source: no base URL configured")
	ErrSourceStatus    = errors.New("source: unexpected response status")
	ErrMalformedRecord = errors.New("source: malformed record")
	ErrUnknownKind     = errors.New("source: unknown source kind")
	ErrNoPath          = errors.New("source: no file path configured")
)
