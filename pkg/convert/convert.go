// Package convert turns decoded planar 4:2:0 pictures into the output pixel
// layouts. It writes into caller-owned buffers and never allocates.
package convert

import (
	"github.com/pkg/errors"

	"oggplay/pkg/av"
)

var (
	ErrShortBuffer = errors.New("destination buffer too small")
	ErrBadPicture  = errors.New("picture planes do not cover the visible region")
)

// Frame fills dst with the visible region of pic laid out as format.
func Frame(dst []byte, pic *av.Picture, format av.PixelFormat) error {
	if pic == nil {
		return errors.Wrap(ErrBadPicture, "nil picture")
	}

	switch format {
	case av.YV12:
		return planar(dst, pic, 2, 1)
	case av.IYUV:
		return planar(dst, pic, 1, 2)
	case av.RGB, av.RGBA, av.BGR, av.BGRA:
		return packed(dst, pic, format == av.BGR || format == av.BGRA, format.HasAlpha())
	default:
		return errors.Wrapf(av.ErrInvalidPixelFormat, "convert to format %d", int(format))
	}
}

// PlanarSize is the number of bytes a planar conversion writes.
func PlanarSize(width, height int) int {
	return width*height + 2*(width/2)*(height/2)
}

// checkPlane verifies rows x cols samples starting at off fit in the plane.
func checkPlane(p *av.Plane, off, rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	if off < 0 || off+p.Stride*(rows-1)+cols > len(p.Data) {
		return errors.Wrapf(ErrBadPicture, "%dx%d samples at offset %d, stride %d, plane len %d",
			cols, rows, off, p.Stride, len(p.Data))
	}
	return nil
}

func lumaOffset(pic *av.Picture) int {
	return (pic.PicX &^ 1) + pic.Planes[0].Stride*(pic.PicY&^1)
}

func chromaOffset(pic *av.Picture, plane int) int {
	return pic.PicX/2 + pic.Planes[plane].Stride*(pic.PicY/2)
}
