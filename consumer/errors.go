package consumer

import (
	"errors"
	"fmt"
)

// ErrBatchAborted marks messages left unprocessed after a fail-fast batch stopped early.
var ErrBatchAborted = errors.New("batch aborted by an earlier failure")

// ParseError is a message body, or one entry of it, that cannot become a record.
// Index is -1 when the body as a whole failed to decode.
type ParseError struct {
	MessageID string
	Index     int
	Err       error
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("failed to parse message %s: %v", e.MessageID, e.Err)
	}
	return fmt.Sprintf("failed to parse entry %d of message %s: %v", e.Index, e.MessageID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StoreWriteError is a failed table or object put.
type StoreWriteError struct {
	MessageID string
	Index     int
	Key       string
	Err       error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("failed to write %s (entry %d of message %s): %v", e.Key, e.Index, e.MessageID, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }
