package adapter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djh20/lfs-leaderboard/internal/protocol"
)

func TestEncodeInit(t *testing.T) {
	got := EncodeInit(protocol.Init{
		Flags:         protocol.ISF_LOCAL,
		Version:       protocol.InSimVersion,
		AdminPassword: "secret",
		ProgramName:   "LFS Leaderboard",
	})

	want := []byte{
		11, byte(protocol.ISP_ISI), 0, 0,
		0, 0, 4, 0,
		9, 0, 0, 0,
	}
	want = append(want, []byte("secret\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")...)
	want = append(want, []byte("LFS Leaderboard\x00")...)

	require.Len(t, got, 44)
	assert.Equal(t, want, got)
}

func TestEncodeInitTruncatesStrings(t *testing.T) {
	got := EncodeInit(protocol.Init{ProgramName: "A program name longer than sixteen"})
	require.Len(t, got, 44)
	assert.Equal(t, "A program name ", string(got[28:43]))
	assert.Equal(t, byte(0), got[43])
}

func TestEncodeMessage(t *testing.T) {
	got := EncodeMessage(protocol.Message{Text: "Lap ignored due to false start", Sound: protocol.SND_SYSMESSAGE})

	require.Len(t, got, 132)
	assert.Equal(t, byte(33), got[0])
	assert.Equal(t, byte(protocol.ISP_MSL), got[1])
	assert.Equal(t, protocol.SND_SYSMESSAGE, got[3])
	assert.Equal(t, "Lap ignored due to false start", cString(got[4:]))

	long := EncodeMessage(protocol.Message{Text: strings.Repeat("x", 300)})
	require.Len(t, long, 132)
	assert.Equal(t, 127, len(cString(long[4:])))
	assert.Equal(t, byte(0), long[131])
}

func TestEncodeButtonRoundTrip(t *testing.T) {
	btn := protocol.Button{
		ReqI:   1,
		ID:     42,
		Style:  0x41,
		Left:   2,
		Top:    18,
		Width:  30,
		Height: 10,
		Text:   "Fastest Laps (Same Car)",
	}

	packet, err := EncodeButton(btn)
	require.NoError(t, err)
	require.Len(t, packet, 112)
	assert.Equal(t, byte(28), packet[0])
	assert.Zero(t, len(packet)%protocol.SizeUnit)

	decoded, err := DecodeButton(packet)
	require.NoError(t, err)
	assert.Equal(t, btn, decoded)
}

func TestEncodeButtonTruncatesText(t *testing.T) {
	packet, err := EncodeButton(protocol.Button{ID: 1, Text: strings.Repeat("y", 150)})
	require.NoError(t, err)
	require.Len(t, packet, 112)

	decoded, err := DecodeButton(packet)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("y", 99), decoded.Text)
}

func TestEncodeButtonRejectsID(t *testing.T) {
	_, err := EncodeButton(protocol.Button{ID: 240})
	assert.Error(t, err)
}

func TestEncodeClearButtons(t *testing.T) {
	assert.Equal(t, []byte{2, byte(protocol.ISP_BFN), 0, protocol.BFN_CLEAR, 0, 0, 0, 0}, EncodeClearButtons())
}

func TestAdapterEncodeDispatch(t *testing.T) {
	a := NewInSimAdapter()

	tests := []struct {
		name string
		cmd  protocol.Command
		want []byte
	}{
		{"init", protocol.Init{Version: 9}, EncodeInit(protocol.Init{Version: 9})},
		{"message", protocol.Message{Text: "hi"}, EncodeMessage(protocol.Message{Text: "hi"})},
		{"clear", protocol.ClearButtons{}, EncodeClearButtons()},
		{"echo", protocol.Echo{Raw: []byte{1, 3, 0, 0}}, []byte{1, 3, 0, 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := a.Encode(tc.cmd)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tc.want, got))
		})
	}

	_, err := a.Encode(protocol.Echo{Raw: []byte{2, 3, 0, 0}})
	assert.Error(t, err)
}
