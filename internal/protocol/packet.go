package protocol

import "fmt"

// PacketType is the record-type discriminant carried in byte 1 of every record.
type PacketType uint8

// Record types used by the client. The full InSim enumeration is larger; anything
// not listed here is ignored on decode.
const (
	ISP_NONE  PacketType = 0
	ISP_ISI   PacketType = 1  // instruction: insim initialise
	ISP_VER   PacketType = 2  // info: version info
	ISP_TINY  PacketType = 3  // both ways: multi purpose
	ISP_SMALL PacketType = 4  // both ways: multi purpose
	ISP_STA   PacketType = 5  // info: state info
	ISP_RST   PacketType = 17 // info: race start
	ISP_NCN   PacketType = 18 // info: new connection
	ISP_CNL   PacketType = 19 // info: connection left
	ISP_CPR   PacketType = 20 // info: connection renamed
	ISP_NPL   PacketType = 21 // info: new player (joined race)
	ISP_LAP   PacketType = 24 // info: lap time
	ISP_PEN   PacketType = 30 // info: penalty given or cleared
	ISP_MSL   PacketType = 40 // instruction: message to local computer
	ISP_BFN   PacketType = 42 // both ways: delete buttons / receive button requests
	ISP_BTN   PacketType = 45 // instruction: show a button
)

// String returns the string representation of the packet type.
func (t PacketType) String() string {
	switch t {
	case ISP_NONE:
		return "NONE"
	case ISP_ISI:
		return "ISI"
	case ISP_VER:
		return "VER"
	case ISP_TINY:
		return "TINY"
	case ISP_SMALL:
		return "SMALL"
	case ISP_STA:
		return "STA"
	case ISP_RST:
		return "RST"
	case ISP_NCN:
		return "NCN"
	case ISP_CNL:
		return "CNL"
	case ISP_CPR:
		return "CPR"
	case ISP_NPL:
		return "NPL"
	case ISP_LAP:
		return "LAP"
	case ISP_PEN:
		return "PEN"
	case ISP_MSL:
		return "MSL"
	case ISP_BFN:
		return "BFN"
	case ISP_BTN:
		return "BTN"
	default:
		return fmt.Sprintf("ISP_%d", uint8(t))
	}
}

// TINY sub-types (byte 3 of IS_TINY).
const (
	TINY_NONE uint8 = 0  // keep alive
	TINY_REN  uint8 = 11 // race end (return to race setup screen)
)

// BFN sub-types (byte 3 of IS_BFN).
const (
	BFN_DEL_BTN    uint8 = 0 // delete one button or range of buttons
	BFN_CLEAR      uint8 = 1 // clear all buttons made by this insim instance
	BFN_USER_CLEAR uint8 = 2 // user cleared this insim instance's buttons
	BFN_REQUEST    uint8 = 3 // SHIFT+B or SHIFT+I, request for buttons
)

// Penalty values and reasons (IS_PEN).
const (
	PENALTY_NONE uint8 = 0

	PENR_UNKNOWN     uint8 = 0
	PENR_ADMIN       uint8 = 1
	PENR_WRONG_WAY   uint8 = 2
	PENR_FALSE_START uint8 = 3
)

// Message sounds (IS_MSL).
const (
	SND_SILENT     uint8 = 0
	SND_MESSAGE    uint8 = 1
	SND_SYSMESSAGE uint8 = 2
	SND_INVALIDKEY uint8 = 3
	SND_ERROR      uint8 = 4
)

// Player type bits (IS_NPL PType).
const (
	PTypeAI     uint8 = 0x02
	PTypeRemote uint8 = 0x04
)

// ISS state flags (IS_STA Flags, low byte).
const (
	ISS_REPLAY uint8 = 0x02
)

// ISF option flags (IS_ISI Flags).
const (
	ISF_LOCAL uint16 = 4
)

// Protocol constants.
const (
	// InSimVersion is the INSIM_VERSION announced in the init record.
	InSimVersion = 9

	// DefaultPort is the simulator's default InSim TCP port.
	DefaultPort = 29999

	// InvalidLapTimeMs is emitted for laps that were not timed (leaving the pits in
	// practice). Any time at or above it is never recorded.
	InvalidLapTimeMs = 60 * 60 * 1000

	// Fixed text slot sizes.
	ButtonTextSize  = 100
	MessageTextSize = 128
	InitStringSize  = 16
)
