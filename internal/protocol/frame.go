package protocol

// Frame constants.
const (
	// SizeUnit is the multiplier applied to byte 0 of every record.
	SizeUnit = 4

	// MaxRecordSize is the largest record the length byte can describe.
	MaxRecordSize = 255 * SizeUnit

	// MaxBacklog is the default cap on buffered, not yet framed bytes.
	MaxBacklog = 64 * 1024
)

// Scanner frames InSim records: byte 0 holds the record length divided by four.
type Scanner struct{}

// Scan implements PacketScanner.
func (Scanner) Scan(buffer []byte) ([]byte, []byte, error) {
	if len(buffer) == 0 {
		return nil, buffer, nil
	}

	size := int(buffer[0]) * SizeUnit
	if size == 0 {
		return nil, buffer, ErrZeroLength
	}
	if len(buffer) < size {
		// Incomplete record, wait for more data
		return nil, buffer, nil
	}

	return buffer[:size], buffer[size:], nil
}

// Reassembler turns a byte stream into complete records. It is not safe for
// concurrent use; a connection owns exactly one.
type Reassembler struct {
	scanner    PacketScanner
	pending    []byte
	maxBacklog int
}

// NewReassembler creates a reassembler capped at maxBacklog buffered bytes.
// A non-positive maxBacklog selects MaxBacklog.
func NewReassembler(maxBacklog int) *Reassembler {
	if maxBacklog <= 0 {
		maxBacklog = MaxBacklog
	}
	return &Reassembler{
		scanner:    Scanner{},
		maxBacklog: maxBacklog,
	}
}

// Feed appends a chunk read from the socket.
func (r *Reassembler) Feed(chunk []byte) error {
	if len(r.pending)+len(chunk) > r.maxBacklog {
		return ErrBacklogOverflow
	}
	r.pending = append(r.pending, chunk...)
	return nil
}

// Next returns the next complete record, or nil when more input is needed.
// The returned slice does not alias the backlog.
func (r *Reassembler) Next() ([]byte, error) {
	packet, rest, err := r.scanner.Scan(r.pending)
	if err != nil || packet == nil {
		return nil, err
	}

	record := make([]byte, len(packet))
	copy(record, packet)

	if len(rest) == 0 {
		r.pending = r.pending[:0]
	} else {
		r.pending = append(r.pending[:0], rest...)
	}
	return record, nil
}

// Drain feeds chunk and returns every record that became complete.
func (r *Reassembler) Drain(chunk []byte) ([][]byte, error) {
	if err := r.Feed(chunk); err != nil {
		return nil, err
	}

	var records [][]byte
	for {
		record, err := r.Next()
		if err != nil {
			return records, err
		}
		if record == nil {
			return records, nil
		}
		records = append(records, record)
	}
}

// Buffered returns the number of bytes waiting for a complete record.
func (r *Reassembler) Buffered() int {
	return len(r.pending)
}

// Reset discards the backlog. Called whenever a new connection is established so
// partial records never leak across reconnects.
func (r *Reassembler) Reset() {
	r.pending = r.pending[:0]
}
