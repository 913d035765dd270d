package convert

import (
	"github.com/pkg/errors"

	"oggplay/pkg/av"
)

// planar copies luma, then chroma plane first, then chroma plane second.
func planar(dst []byte, pic *av.Picture, first, second int) error {
	w, h := pic.PicWidth, pic.PicHeight
	cw, ch := w/2, h/2

	if need := PlanarSize(w, h); len(dst) < need {
		return errors.Wrapf(ErrShortBuffer, "need %d bytes, have %d", need, len(dst))
	}

	luma := &pic.Planes[0]
	yoff := lumaOffset(pic)
	if err := checkPlane(luma, yoff, h, w); err != nil {
		return errors.Wrap(err, "luma plane")
	}

	off := 0
	for i := 0; i < h; i++ {
		row := yoff + luma.Stride*i
		off += copy(dst[off:off+w], luma.Data[row:row+w])
	}

	for _, idx := range [2]int{first, second} {
		plane := &pic.Planes[idx]
		uvoff := chromaOffset(pic, idx)
		if err := checkPlane(plane, uvoff, ch, cw); err != nil {
			return errors.Wrapf(err, "chroma plane %d", idx)
		}

		for i := 0; i < ch; i++ {
			row := uvoff + plane.Stride*i
			off += copy(dst[off:off+cw], plane.Data[row:row+cw])
		}
	}

	return nil
}
