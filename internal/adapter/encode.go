package adapter

import (
	"encoding/binary"
	"fmt"

	"github.com/djh20/lfs-leaderboard/internal/protocol"
)

// Record sizes produced by the encoders.
const (
	initSize         = 44
	messageSize      = 4 + protocol.MessageTextSize
	buttonHeaderSize = 12
	buttonSize       = buttonHeaderSize + protocol.ButtonTextSize
	clearSize        = 8
)

// EncodeInit builds the 44-byte IS_ISI handshake.
//
//	Size Type ReqI Zero | UDPPort(2) Flags(2) | Version Prefix Interval(2) |
//	Admin[16] | IName[16]
func EncodeInit(cmd protocol.Init) []byte {
	buf := make([]byte, initSize)
	buf[0] = initSize / protocol.SizeUnit
	buf[1] = byte(protocol.ISP_ISI)
	// ReqI, UDPPort, Prefix and Interval stay zero: no IS_VER reply, no UDP, no NLP/MCI.
	binary.LittleEndian.PutUint16(buf[6:8], cmd.Flags)
	buf[8] = cmd.Version
	putString(buf[12:28], cmd.AdminPassword)
	putString(buf[28:44], cmd.ProgramName)
	return buf
}

// EncodeMessage builds an IS_MSL record carrying text for the local screen.
func EncodeMessage(cmd protocol.Message) []byte {
	buf := make([]byte, messageSize)
	buf[0] = messageSize / protocol.SizeUnit
	buf[1] = byte(protocol.ISP_MSL)
	buf[3] = cmd.Sound
	putString(buf[4:], cmd.Text)
	return buf
}

// EncodeButton builds an IS_BTN record with a fixed 100-byte text slot, which keeps
// the record size a multiple of four.
func EncodeButton(cmd protocol.Button) ([]byte, error) {
	if cmd.ID > protocol.MaxButtonID {
		return nil, fmt.Errorf("button id %d out of range", cmd.ID)
	}

	buf := make([]byte, buttonSize)
	buf[0] = buttonSize / protocol.SizeUnit
	buf[1] = byte(protocol.ISP_BTN)
	buf[2] = cmd.ReqI
	buf[3] = cmd.UCID
	buf[4] = cmd.ID
	buf[5] = cmd.Inst
	buf[6] = cmd.Style
	buf[7] = cmd.TypeIn
	buf[8] = cmd.Left
	buf[9] = cmd.Top
	buf[10] = cmd.Width
	buf[11] = cmd.Height
	putString(buf[buttonHeaderSize:], cmd.Text)
	return buf, nil
}

// DecodeButton parses an IS_BTN record produced by EncodeButton.
func DecodeButton(packet []byte) (protocol.Button, error) {
	if len(packet) < buttonHeaderSize {
		return protocol.Button{}, &protocol.Underflow{Type: protocol.ISP_BTN, Size: len(packet), Need: buttonHeaderSize}
	}
	if protocol.PacketType(packet[1]) != protocol.ISP_BTN {
		return protocol.Button{}, fmt.Errorf("not a button record: %s", protocol.PacketType(packet[1]))
	}
	return protocol.Button{
		ReqI:   packet[2],
		UCID:   packet[3],
		ID:     packet[4],
		Inst:   packet[5],
		Style:  packet[6],
		TypeIn: packet[7],
		Left:   packet[8],
		Top:    packet[9],
		Width:  packet[10],
		Height: packet[11],
		Text:   cString(packet[buttonHeaderSize:]),
	}, nil
}

// EncodeClearButtons builds an IS_BFN BFN_CLEAR for the local connection.
func EncodeClearButtons() []byte {
	buf := make([]byte, clearSize)
	buf[0] = clearSize / protocol.SizeUnit
	buf[1] = byte(protocol.ISP_BFN)
	buf[3] = protocol.BFN_CLEAR
	// UCID 0 = local
	return buf
}

