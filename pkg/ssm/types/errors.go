package types

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection covers failures establishing the session: dialing
	// the relay, the JOIN handshake or the peer closing during it.
	ErrConnection = errors.New("connection error")

	// ErrServer covers the peer misbehaving mid-stream: malformed
	// frames, protocol violations, unexpected close.
	ErrServer = errors.New("server error")

	// ErrInternal covers local failures: serialization, the mailbox or
	// the reader tearing down under a caller.
	ErrInternal = errors.New("internal error")
)

// ConnectionErrorf formats a message wrapped in the connection kind.
func ConnectionErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConnection, fmt.Sprintf(format, args...))
}

// ServerErrorf formats a message wrapped in the server kind.
func ServerErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrServer, fmt.Sprintf(format, args...))
}

// InternalErrorf formats a message wrapped in the internal kind.
func InternalErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}
