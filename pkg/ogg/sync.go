package ogg

import (
	"bytes"

	"oggplay/pkg/common"
)

// SyncState accumulates raw container bytes and cuts them into pages.
// It never reads on its own: callers fill it with Buffer/Wrote or Feed and
// retry PageOut when it reports ErrNeedMoreData.
type SyncState struct {
	data     []byte
	fill     int // bytes written into data
	returned int // bytes already handed out or skipped
	pending  int // size of the slice handed out by Buffer

	skipped int64
}

func NewSyncState() *SyncState {
	return &SyncState{}
}

// Buffer returns a slice of at least size writable bytes. The caller reports
// how many it filled with Wrote.
func (s *SyncState) Buffer(size int) ([]byte, error) {
	if size < 0 {
		return nil, errNegativeBufSize
	}

	if s.returned > 0 {
		n := copy(s.data, s.data[s.returned:s.fill])
		s.fill = n
		s.returned = 0
	}

	if need := s.fill + size; need > len(s.data) {
		grown := make([]byte, need+4096)
		copy(grown, s.data[:s.fill])
		s.data = grown
	}

	s.pending = size
	return s.data[s.fill : s.fill+size], nil
}

func (s *SyncState) Wrote(n int) error {
	if n < 0 || n > s.pending {
		return errBufferOverflow
	}

	s.fill += n
	s.pending = 0
	return nil
}

// Feed copies p into the accumulator.
func (s *SyncState) Feed(p []byte) {
	buf, _ := s.Buffer(len(p))
	copy(buf, p)
	s.fill += len(p)
	s.pending = 0
}

// Buffered is the number of bytes not yet returned as pages.
func (s *SyncState) Buffered() int {
	return s.fill - s.returned
}

// Skipped is the number of bytes discarded while searching for page boundaries.
func (s *SyncState) Skipped() int64 {
	return s.skipped
}

func (s *SyncState) Reset() {
	s.fill = 0
	s.returned = 0
	s.pending = 0
}

// PageOut extracts the next complete page. Bytes that do not start a valid
// page (no capture pattern, bad checksum) are skipped until sync is regained.
func (s *SyncState) PageOut() (*Page, error) {
	for {
		buf := s.data[s.returned:s.fill]
		if len(buf) < headerSize {
			return nil, ErrNeedMoreData
		}

		if !bytes.HasPrefix(buf, capturePattern) {
			s.resync(buf)
			continue
		}

		hdrLen := headerSize + int(buf[26])
		if len(buf) < hdrLen {
			return nil, ErrNeedMoreData
		}

		total := hdrLen
		for _, seg := range buf[headerSize:hdrLen] {
			total += int(seg)
		}
		if len(buf) < total {
			return nil, ErrNeedMoreData
		}

		raw := buf[:total]
		if pageChecksum(raw) != common.BytesAsUint32(raw[22:26], false) {
			s.resync(buf)
			continue
		}

		s.returned += total
		return decodePage(raw), nil
	}
}

// resync drops bytes up to the next possible capture pattern.
func (s *SyncState) resync(buf []byte) {
	n := len(buf)
	if idx := bytes.IndexByte(buf[1:], capturePattern[0]); idx >= 0 {
		n = idx + 1
	}
	s.returned += n
	s.skipped += int64(n)
}
