package chat

import "errors"

// Errors returned by gateway operations. Validation errors are reported
// to the offending client and have no side effect; a store error is
// reported to the sender only. None of them terminate the connection.
var (
	ErrInvalidRoom      = errors.New("room name must not be empty")
	ErrEmptyMessage     = errors.New("message text must not be empty")
	ErrNotInRoom        = errors.New("not joined to this room")
	ErrStoreUnavailable = errors.New("message store unavailable")
)

// errorCode maps an operation error to the short code sent to clients.
func errorCode(err error) string {
	if errors.Is(err, ErrStoreUnavailable) {
		return "store_unavailable"
	}
	return "validation"
}
