package realtime

import "errors"

var (
	ErrNotConnected      = errors.New("push connection not open")
	ErrMalformedFrame    = errors.New("malformed frame")
	ErrUnknownEventType  = errors.New("unknown event type")
	ErrUnknownAdminEvent = errors.New("unknown admin action or target type")
)
