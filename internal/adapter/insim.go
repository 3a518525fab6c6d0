package adapter

import (
	"encoding/binary"
	"fmt"

	"github.com/djh20/lfs-leaderboard/internal/protocol"
)

// Minimum record sizes for the fields read from each type.
const (
	minTiny = 4
	minSta  = 9
	minRst  = 14
	minCpr  = 28
	minNpl  = 44
	minLap  = 8
	minPen  = 7
	minBfn  = 4
)

// InSimAdapter implements ProtocolAdapter for the InSim TCP protocol
type InSimAdapter struct{}

// NewInSimAdapter creates a new InSim adapter
func NewInSimAdapter() *InSimAdapter {
	return &InSimAdapter{}
}

// Protocol returns protocol identifier
func (a *InSimAdapter) Protocol() string {
	return "InSim"
}

// Decode translates an InSim record to a typed event
func (a *InSimAdapter) Decode(packet []byte) (protocol.Event, error) {
	if len(packet) < 2 {
		return nil, &protocol.Underflow{Type: protocol.ISP_NONE, Size: len(packet), Need: 2}
	}

	typ := protocol.PacketType(packet[1])

	switch typ {
	case protocol.ISP_NPL:
		if err := need(packet, typ, minNpl); err != nil {
			return nil, err
		}
		ptype := packet[5]
		var cname [3]byte
		copy(cname[:], packet[40:43])
		code, official := DeriveVehicleCode(cname)
		return protocol.PlayerJoined{
			PlayerID:        packet[3],
			ConnectionID:    packet[4],
			AI:              ptype&protocol.PTypeAI != 0,
			Remote:          ptype&protocol.PTypeRemote != 0,
			Name:            cString(packet[8:32]),
			VehicleCode:     code,
			OfficialVehicle: official,
		}, nil

	case protocol.ISP_CPR:
		if err := need(packet, typ, minCpr); err != nil {
			return nil, err
		}
		return protocol.ConnectionRenamed{
			ConnectionID: packet[3],
			Name:         cString(packet[4:28]),
		}, nil

	case protocol.ISP_RST:
		if err := need(packet, typ, minRst); err != nil {
			return nil, err
		}
		return protocol.RaceStarted{TrackCode: cString(packet[8:14])}, nil

	case protocol.ISP_STA:
		if err := need(packet, typ, minSta); err != nil {
			return nil, err
		}
		return protocol.ReplayState{WatchingReplay: packet[8]&protocol.ISS_REPLAY != 0}, nil

	case protocol.ISP_LAP:
		if err := need(packet, typ, minLap); err != nil {
			return nil, err
		}
		return protocol.LapCompleted{
			PlayerID: packet[3],
			TimeMs:   binary.LittleEndian.Uint32(packet[4:8]),
		}, nil

	case protocol.ISP_BFN:
		if err := need(packet, typ, minBfn); err != nil {
			return nil, err
		}
		return protocol.ButtonRequest{SubType: packet[3]}, nil

	case protocol.ISP_PEN:
		if err := need(packet, typ, minPen); err != nil {
			return nil, err
		}
		return protocol.PenaltyChanged{
			PlayerID:   packet[3],
			OldPenalty: packet[4],
			NewPenalty: packet[5],
			Reason:     packet[6],
		}, nil

	case protocol.ISP_TINY:
		if err := need(packet, typ, minTiny); err != nil {
			return nil, err
		}
		switch packet[3] {
		case protocol.TINY_NONE:
			raw := make([]byte, len(packet))
			copy(raw, packet)
			return protocol.KeepAlive{Raw: raw}, nil
		case protocol.TINY_REN:
			return protocol.RaceEnded{}, nil
		}
		return nil, nil

	default:
		return nil, nil
	}
}

// Encode translates an outbound command to an InSim record
func (a *InSimAdapter) Encode(cmd protocol.Command) ([]byte, error) {
	switch c := cmd.(type) {
	case protocol.Init:
		return EncodeInit(c), nil
	case protocol.Message:
		return EncodeMessage(c), nil
	case protocol.Echo:
		return a.KeepAliveAck(c.Raw)
	case protocol.Button:
		return EncodeButton(c)
	case protocol.ClearButtons:
		return EncodeClearButtons(), nil
	default:
		return nil, fmt.Errorf("unsupported command type: %T", cmd)
	}
}

// IsKeepAlive checks if packet is a keep-alive IS_TINY
func (a *InSimAdapter) IsKeepAlive(packet []byte) bool {
	return len(packet) >= minTiny &&
		protocol.PacketType(packet[1]) == protocol.ISP_TINY &&
		packet[3] == protocol.TINY_NONE
}

// KeepAliveAck creates the keep-alive reply: an identical copy of the record
func (a *InSimAdapter) KeepAliveAck(packet []byte) ([]byte, error) {
	if len(packet) < minTiny || int(packet[0])*protocol.SizeUnit != len(packet) {
		return nil, fmt.Errorf("invalid keep-alive record of %d bytes", len(packet))
	}
	ack := make([]byte, len(packet))
	copy(ack, packet)
	return ack, nil
}

// DeriveVehicleCode turns the three identifier bytes of IS_NPL CName into a vehicle
// code. Official vehicles use three alphanumeric characters; anything else is a mod,
// identified by the bytes reversed and rendered as uppercase hex.
func DeriveVehicleCode(id [3]byte) (string, bool) {
	official := true
	for _, c := range id {
		if !isAlphanumeric(c) {
			official = false
			break
		}
	}
	if official {
		return string(id[:]), true
	}
	return fmt.Sprintf("%02X%02X%02X", id[2], id[1], id[0]), false
}

func isAlphanumeric(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}


func need(packet []byte, typ protocol.PacketType, n int) error {
	if len(packet) < n {
		return &protocol.Underflow{Type: typ, Size: len(packet), Need: n}
	}
	return nil
}
