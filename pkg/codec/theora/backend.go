package theora

import (
	"oggplay/pkg/av"
)

// Backend reconstructs pictures from Theora data packets. It owns whatever
// reference frames it needs and writes the result into pic, whose planes are
// sized for the coded frame.
type Backend interface {
	DecodeFrame(data []byte, keyframe bool, pic *av.Picture) error
	Close() error
}

// BackendFactory creates a backend for one stream from its identification
// and setup headers.
type BackendFactory func(info *Info, setup []byte) (Backend, error)

// PostProcessor is implemented by backends that support post-processing.
type PostProcessor interface {
	SetPostProcessingLevel(level int) error
}

// SolidBackend renders every keyframe as a single color and repeats it for
// inter frames. Useful for timing and pacing runs where pixel content does
// not matter.
type SolidBackend struct {
	Y, Cb, Cr byte
}

func NewSolidBackend(y, cb, cr byte) BackendFactory {
	return func(*Info, []byte) (Backend, error) {
		return &SolidBackend{Y: y, Cb: cb, Cr: cr}, nil
	}
}

func (b *SolidBackend) DecodeFrame(data []byte, keyframe bool, pic *av.Picture) error {
	if keyframe {
		pic.Fill(b.Y, b.Cb, b.Cr)
	}
	return nil
}

func (b *SolidBackend) Close() error {
	return nil
}
