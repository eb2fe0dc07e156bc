package presence

import "errors"

// Registry and routing errors. Router operations wrap these with context;
// use errors.Is to classify them.
var (
	ErrNotFound            = errors.New("connection not found")
	ErrDuplicateConnection = errors.New("connection already registered")
	ErrInvalidRoom         = errors.New("invalid room")
	ErrEmptyInput          = errors.New("empty input")
	ErrTargetNotFound      = errors.New("target user not found")
	ErrNoIdentity          = errors.New("connection has no identity")
	ErrMessageTooLong      = errors.New("message exceeds maximum length")
	ErrUsernameTooLong     = errors.New("username exceeds maximum length")
	ErrUnknownEvent        = errors.New("unknown event")
	ErrBadPayload          = errors.New("malformed payload")
	ErrEmptyCatalog        = errors.New("room catalog is empty")
	ErrQueueFull           = errors.New("engine queue is full")
	ErrEngineStopped       = errors.New("engine is not running")
)

// isSilent reports whether err is an expected rejection that is only worth a debug log.
func isSilent(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrNoIdentity)
}

// isCallerError reports whether err was caused by the caller's input.
func isCallerError(err error) bool {
	return errors.Is(err, ErrInvalidRoom) ||
		errors.Is(err, ErrTargetNotFound) ||
		errors.Is(err, ErrMessageTooLong) ||
		errors.Is(err, ErrUsernameTooLong) ||
		errors.Is(err, ErrUnknownEvent) ||
		errors.Is(err, ErrBadPayload) ||
		errors.Is(err, ErrDuplicateConnection)
}
