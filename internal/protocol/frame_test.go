package protocol

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// record builds a record of size units with the given type and filler payload.
func record(units int, typ PacketType, fill byte) []byte {
	r := make([]byte, units*SizeUnit)
	r[0] = byte(units)
	r[1] = byte(typ)
	for i := 2; i < len(r); i++ {
		r[i] = fill
	}
	return r
}

func testStream() ([]byte, [][]byte) {
	want := [][]byte{
		record(1, ISP_TINY, 0x00),
		record(19, ISP_NPL, 0x41),
		record(2, ISP_BFN, 0x03),
		record(5, ISP_RST, 0x42),
		record(255, ISP_BTN, 0x7f),
		record(5, ISP_LAP, 0x10),
	}
	var stream []byte
	for _, r := range want {
		stream = append(stream, r...)
	}
	return stream, want
}

func drainAll(t *testing.T, r *Reassembler, chunks [][]byte) [][]byte {
	t.Helper()
	var got [][]byte
	for _, c := range chunks {
		records, err := r.Drain(c)
		require.NoError(t, err)
		got = append(got, records...)
	}
	return got
}

func TestScan(t *testing.T) {
	tests := []struct {
		name     string
		buffer   []byte
		wantPkt  []byte
		wantRest []byte
		wantErr  error
	}{
		{
			name:     "empty",
			buffer:   []byte{},
			wantRest: []byte{},
		},
		{
			name:     "partial",
			buffer:   []byte{2, 3, 0},
			wantRest: []byte{2, 3, 0},
		},
		{
			name:     "exact",
			buffer:   []byte{1, 3, 0, 0},
			wantPkt:  []byte{1, 3, 0, 0},
			wantRest: []byte{},
		},
		{
			name:     "with_rest",
			buffer:   []byte{1, 3, 0, 0, 2},
			wantPkt:  []byte{1, 3, 0, 0},
			wantRest: []byte{2},
		},
		{
			name:     "zero_length",
			buffer:   []byte{0, 3, 0, 0},
			wantRest: []byte{0, 3, 0, 0},
			wantErr:  ErrZeroLength,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pkt, rest, err := Scanner{}.Scan(tc.buffer)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.wantPkt, pkt)
			assert.Equal(t, tc.wantRest, rest)
		})
	}
}

func TestReassemblerWholeStream(t *testing.T) {
	stream, want := testStream()

	got := drainAll(t, NewReassembler(0), [][]byte{stream})
	assert.Equal(t, want, got)
}

func TestReassemblerChunkBoundaryInvariance(t *testing.T) {
	stream, want := testStream()

	// Every single split point.
	for i := 0; i <= len(stream); i++ {
		got := drainAll(t, NewReassembler(0), [][]byte{stream[:i], stream[i:]})
		require.Equal(t, want, got, "split at %d", i)
	}

	// Byte at a time.
	var bytewise [][]byte
	for i := range stream {
		bytewise = append(bytewise, stream[i:i+1])
	}
	assert.Equal(t, want, drainAll(t, NewReassembler(0), bytewise))

	// Random chunkings.
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 200; n++ {
		var chunks [][]byte
		for rest := stream; len(rest) > 0; {
			k := rng.Intn(len(rest)) + 1
			if k > 300 {
				k = 300
			}
			chunks = append(chunks, rest[:k])
			rest = rest[k:]
		}
		require.Equal(t, want, drainAll(t, NewReassembler(0), chunks))
	}
}

func TestReassemblerPartialWaits(t *testing.T) {
	r := NewReassembler(0)
	require.NoError(t, r.Feed([]byte{2, byte(ISP_BFN), 0}))

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 3, r.Buffered())

	records, err := r.Drain([]byte{3, 0, 0, 0, 0, 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []byte{2, byte(ISP_BFN), 0, 3, 0, 0, 0, 0}, records[0])
	assert.Equal(t, 1, r.Buffered())
}

func TestReassemblerRecordsDoNotAliasBacklog(t *testing.T) {
	r := NewReassembler(0)
	records, err := r.Drain(append(record(1, ISP_TINY, 0), 1, byte(ISP_TINY)))
	require.NoError(t, err)
	require.Len(t, records, 1)

	records[0][2] = 0xff
	more, err := r.Drain([]byte{9, 9})
	require.NoError(t, err)
	require.Len(t, more, 1)
	assert.Equal(t, []byte{1, byte(ISP_TINY), 9, 9}, more[0])
}

func TestReassemblerZeroLength(t *testing.T) {
	r := NewReassembler(0)
	records, err := r.Drain(append(record(1, ISP_TINY, 0), 0, 0, 0, 0))
	assert.ErrorIs(t, err, ErrZeroLength)
	assert.Len(t, records, 1)
}

func TestReassemblerBacklogLimit(t *testing.T) {
	r := NewReassembler(8)
	require.NoError(t, r.Feed([]byte{10, 0, 0, 0}))
	assert.ErrorIs(t, r.Feed(make([]byte, 5)), ErrBacklogOverflow)
}

func TestReassemblerReset(t *testing.T) {
	r := NewReassembler(0)
	require.NoError(t, r.Feed([]byte{5, byte(ISP_RST), 1}))
	r.Reset()
	assert.Zero(t, r.Buffered())

	records, err := r.Drain(record(1, ISP_TINY, 0))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{record(1, ISP_TINY, 0)}, records)
}
