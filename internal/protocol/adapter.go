package protocol

// PacketScanner handles record boundary detection from the TCP stream
type PacketScanner interface {
	// Scan extracts one complete record from buffer
	// completePacket: the extracted record, nil when more bytes are needed
	// restBuffer: remaining unprocessed bytes
	Scan(buffer []byte) (completePacket []byte, restBuffer []byte, err error)
}

// ProtocolAdapter translates between InSim records and typed events/commands
type ProtocolAdapter interface {
	// Decode translates a raw record to a typed event.
	// Records of types the client does not consume decode to (nil, nil).
	Decode(packet []byte) (Event, error)

	// Encode translates an outbound command to a raw record
	Encode(cmd Command) ([]byte, error)

	// IsKeepAlive checks if the record is a keep-alive
	IsKeepAlive(packet []byte) bool

	// KeepAliveAck creates the keep-alive reply
	KeepAliveAck(packet []byte) ([]byte, error)

	// Protocol returns protocol identifier
	Protocol() string
}
