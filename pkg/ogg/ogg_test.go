package ogg

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEncode(t *testing.T, opts ...pageOption) []byte {
	t.Helper()
	p, err := NewPage(opts...)
	require.NoError(t, err)
	raw, err := p.Encode()
	require.NoError(t, err)
	return raw
}

func TestSyncPageRoundTrip(t *testing.T) {
	raw := mustEncode(t,
		WithPageSerial(0x1234),
		WithPageSeqNo(7),
		WithPageGranulePos(99),
		WithPageHeaderType(FlagBOS),
		WithPagePackets([]byte("hello"), []byte("world!")),
	)

	s := NewSyncState()
	s.Feed(raw)

	p, err := s.PageOut()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234), p.Serial)
	assert.Equal(t, uint32(7), p.SeqNo)
	assert.Equal(t, int64(99), p.GranulePos)
	assert.True(t, p.BOS())
	assert.False(t, p.EOS())
	assert.False(t, p.Continued())
	assert.Equal(t, []uint8{5, 6}, p.Segments)
	assert.Equal(t, []byte("helloworld!"), p.Body)
	assert.Equal(t, 2, p.Packets())

	_, err = s.PageOut()
	assert.Equal(t, ErrNeedMoreData, err)
	assert.Equal(t, 0, s.Buffered())
}

func TestSyncShortReads(t *testing.T) {
	raw := mustEncode(t, WithPageSerial(1), WithPagePackets(bytes.Repeat([]byte{0xAB}, 600)))

	s := NewSyncState()
	for i := 0; i < len(raw)-1; i++ {
		buf, err := s.Buffer(1)
		require.NoError(t, err)
		buf[0] = raw[i]
		require.NoError(t, s.Wrote(1))

		_, err = s.PageOut()
		require.Equal(t, ErrNeedMoreData, err, "page returned after %d bytes", i+1)
	}

	buf, err := s.Buffer(1)
	require.NoError(t, err)
	buf[0] = raw[len(raw)-1]
	require.NoError(t, s.Wrote(1))

	p, err := s.PageOut()
	require.NoError(t, err)
	assert.Len(t, p.Body, 600)
	assert.Equal(t, []uint8{255, 255, 90}, p.Segments)
}

func TestSyncWroteOverflow(t *testing.T) {
	s := NewSyncState()
	_, err := s.Buffer(16)
	require.NoError(t, err)
	assert.Error(t, s.Wrote(17))

	_, err = s.Buffer(-1)
	assert.Error(t, err)
}

func TestSyncResync(t *testing.T) {
	good := mustEncode(t, WithPageSerial(2), WithPagePackets([]byte("payload")))

	corrupt := append([]byte(nil), good...)
	corrupt[len(corrupt)-1] ^= 0xFF

	var stream []byte
	stream = append(stream, []byte("garbage O Og Ogg")...)
	stream = append(stream, corrupt...)
	stream = append(stream, good...)

	s := NewSyncState()
	s.Feed(stream)

	p, err := s.PageOut()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), p.Body)
	assert.Equal(t, int64(len(stream)-len(good)), s.Skipped())
}

func TestPageEncodeErrors(t *testing.T) {
	_, err := NewPage(WithPageSegments(make([]uint8, 256), nil))
	assert.Equal(t, errTooManySegments, err)

	p := &Page{Segments: []uint8{4}, Body: []byte("abc")}
	_, err = p.Encode()
	assert.Error(t, err)
}

func TestLacing(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		complete bool
		want     []uint8
	}{
		{name: "empty", n: 0, complete: true, want: []uint8{0}},
		{name: "short", n: 10, complete: true, want: []uint8{10}},
		{name: "exact_multiple", n: 255, complete: true, want: []uint8{255, 0}},
		{name: "long", n: 600, complete: true, want: []uint8{255, 255, 90}},
		{name: "continued", n: 510, complete: false, want: []uint8{255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lacing(tt.n, tt.complete))
		})
	}
}

func TestStreamPacketsAndGranule(t *testing.T) {
	p, err := NewPage(
		WithPageSerial(5),
		WithPageHeaderType(FlagBOS|FlagEOS),
		WithPageGranulePos(42),
		WithPagePackets([]byte("a"), []byte(""), []byte("ccc")),
	)
	require.NoError(t, err)

	st := NewStream(5)
	require.NoError(t, st.PageIn(p))
	require.Equal(t, 3, st.Len())
	assert.True(t, st.EOS())

	first, ok := st.PacketOut()
	require.True(t, ok)
	assert.Equal(t, []byte("a"), first.Data)
	assert.True(t, first.BOS)
	assert.Equal(t, int64(-1), first.GranulePos)
	assert.Equal(t, int64(0), first.PacketNo)

	second, ok := st.PacketOut()
	require.True(t, ok)
	assert.Empty(t, second.Data)
	assert.False(t, second.BOS)
	assert.Equal(t, int64(-1), second.GranulePos)

	third, ok := st.PacketOut()
	require.True(t, ok)
	assert.Equal(t, []byte("ccc"), third.Data)
	assert.Equal(t, int64(42), third.GranulePos)
	assert.True(t, third.EOS)
	assert.Equal(t, int64(2), third.PacketNo)

	_, ok = st.PacketOut()
	assert.False(t, ok)
}

func TestStreamSerialMismatch(t *testing.T) {
	p, err := NewPage(WithPageSerial(1), WithPagePackets([]byte("x")))
	require.NoError(t, err)

	st := NewStream(2)
	assert.Equal(t, ErrSerialMismatch, errors.Cause(st.PageIn(p)))
	assert.Equal(t, 0, st.Len())

	p.Serial = 2
	p.Version = 1
	assert.Equal(t, ErrBadVersion, st.PageIn(p))
}

func TestStreamPacketSpanningPages(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3}, 200) // 600 bytes
	head, tail := data[:510], data[510:]

	p1, err := NewPage(
		WithPageSerial(9),
		WithPageSeqNo(0),
		WithPageGranulePos(-1),
		WithPageSegments(Lacing(len(head), false), head),
	)
	require.NoError(t, err)
	p2, err := NewPage(
		WithPageSerial(9),
		WithPageSeqNo(1),
		WithPageHeaderType(FlagContinued),
		WithPageGranulePos(7),
		WithPageSegments(Lacing(len(tail), true), tail),
	)
	require.NoError(t, err)

	st := NewStream(9)
	require.NoError(t, st.PageIn(p1))
	assert.Equal(t, 0, st.Len())
	require.NoError(t, st.PageIn(p2))

	pkt, ok := st.PacketOut()
	require.True(t, ok)
	assert.Equal(t, data, pkt.Data)
	assert.Equal(t, int64(7), pkt.GranulePos)
}

func TestStreamSequenceGap(t *testing.T) {
	head := bytes.Repeat([]byte{7}, 255)

	p1, err := NewPage(WithPageSerial(3), WithPageSeqNo(0), WithPageSegments(Lacing(255, false), head))
	require.NoError(t, err)
	// seqno 1 is lost; page 2 carries the tail of the lost packet and a whole one.
	p3, err := NewPage(
		WithPageSerial(3),
		WithPageSeqNo(2),
		WithPageHeaderType(FlagContinued),
		WithPageSegments([]uint8{3}, []byte{9, 9, 9}),
		WithPagePackets([]byte("next")),
	)
	require.NoError(t, err)

	st := NewStream(3)
	require.NoError(t, st.PageIn(p1))
	require.NoError(t, st.PageIn(p3))

	assert.Equal(t, 1, st.Holes())
	pkt, ok := st.PacketOut()
	require.True(t, ok)
	assert.Equal(t, []byte("next"), pkt.Data)
	assert.Equal(t, 0, st.Len())
}

func TestStreamBoundedQueue(t *testing.T) {
	st := NewStream(1, WithStreamMaxPackets(2))
	for i := 0; i < 4; i++ {
		p, err := NewPage(WithPageSerial(1), WithPageSeqNo(uint32(i)), WithPagePackets([]byte{byte(i)}))
		require.NoError(t, err)
		require.NoError(t, st.PageIn(p))
	}

	assert.Equal(t, 2, st.Len())
	assert.Equal(t, 2, st.Dropped())

	pkt, ok := st.PacketOut()
	require.True(t, ok)
	assert.Equal(t, []byte{2}, pkt.Data)
}
