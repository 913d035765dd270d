package convert

import (
	"github.com/pkg/errors"

	"oggplay/pkg/av"
)

// Y'CbCr -> R'G'B' constants valid for both NTSC and PAL/SECAM primaries.
const (
	yOffset    = 16.0
	yExcursion = 219.0
	cOffset    = 128.0
	cExcursion = 224.0
	kr         = 0.299
	kb         = 0.114
)

// per-sample contributions in 0..1; the sum is scaled to 0..255 once
var (
	lumaTab [256]float32
	crRTab  [256]float32
	cbGTab  [256]float32
	crGTab  [256]float32
	cbBTab  [256]float32
)

func init() {
	for i := 0; i < 256; i++ {
		y := (float32(i) - yOffset) / yExcursion
		c := (float32(i) - cOffset) / cExcursion

		lumaTab[i] = y
		crRTab[i] = float32(2*(1-kr)) * c
		cbGTab[i] = float32(2*((1-kb)*kb/((1-kb)-kr))) * c
		crGTab[i] = float32(2*((1-kr)*kr/((1-kb)-kr))) * c
		cbBTab[i] = float32(2*(1-kb)) * c
	}
}

func pixel(y, cb, cr byte) (r, g, b byte) {
	l := lumaTab[y]
	r = clamp((l + crRTab[cr]) * 255)
	g = clamp((l - cbGTab[cb] - crGTab[cr]) * 255)
	b = clamp((l + cbBTab[cb]) * 255)
	return r, g, b
}

func clamp(v float32) byte {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return byte(v)
	}
}

// packed converts every visible pixel, reading chroma at half resolution.
func packed(dst []byte, pic *av.Picture, bgr, alpha bool) error {
	w, h := pic.PicWidth, pic.PicHeight
	bpp := 3
	if alpha {
		bpp = 4
	}

	if need := w * h * bpp; len(dst) < need {
		return errors.Wrapf(ErrShortBuffer, "need %d bytes, have %d", need, len(dst))
	}
	if w == 0 || h == 0 {
		return nil
	}

	luma, cb, cr := &pic.Planes[0], &pic.Planes[1], &pic.Planes[2]
	yoff := lumaOffset(pic)
	cboff := chromaOffset(pic, 1)
	croff := chromaOffset(pic, 2)

	if err := checkPlane(luma, yoff, h, w); err != nil {
		return errors.Wrap(err, "luma plane")
	}
	if err := checkPlane(cb, cboff, (h-1)/2+1, (w-1)/2+1); err != nil {
		return errors.Wrap(err, "cb plane")
	}
	if err := checkPlane(cr, croff, (h-1)/2+1, (w-1)/2+1); err != nil {
		return errors.Wrap(err, "cr plane")
	}

	off := 0
	for y := 0; y < h; y++ {
		py := luma.Data[yoff+luma.Stride*y:]
		pcb := cb.Data[cboff+cb.Stride*(y/2):]
		pcr := cr.Data[croff+cr.Stride*(y/2):]

		for x := 0; x < w; x++ {
			r, g, b := pixel(py[x], pcb[x/2], pcr[x/2])

			if bgr {
				r, b = b, r
			}
			dst[off] = r
			dst[off+1] = g
			dst[off+2] = b
			if alpha {
				dst[off+3] = 0xFF
			}
			off += bpp
		}
	}

	return nil
}
