package protocol

import (
	"errors"
	"fmt"
)

// Framing errors. Both are fatal for the connection that produced them: the stream
// can no longer be resynchronised and must be reconnected.
var (
	ErrZeroLength      = errors.New("protocol: record declares zero length")
	ErrBacklogOverflow = errors.New("protocol: receive backlog exceeds limit")
)

// Underflow is returned when a record is shorter than the fields its type requires.
type Underflow struct {
	Type PacketType
	Size int
	Need int
}

func (e *Underflow) Error() string {
	return fmt.Sprintf("protocol: %s record underflow, got %d bytes, need at least %d", e.Type, e.Size, e.Need)
}
