package convert

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oggplay/pkg/av"
)

// referenceRGB is the textbook conversion in float64.
func referenceRGB(y, cb, cr byte) (r, g, b float64) {
	const kr, kb = 0.299, 0.114
	yy := (float64(y) - 16) / 219
	pb := (float64(cb) - 128) / 224
	pr := (float64(cr) - 128) / 224
	r = (yy + 2*(1-kr)*pr) * 255
	g = (yy - 2*((1-kb)*kb/((1-kb)-kr))*pb - 2*((1-kr)*kr/((1-kb)-kr))*pr) * 255
	b = (yy + 2*(1-kb)*pb) * 255
	return math.Max(0, math.Min(255, r)), math.Max(0, math.Min(255, g)), math.Max(0, math.Min(255, b))
}

func solidPicture(w, h int, y, cb, cr byte) *av.Picture {
	pic := av.NewPicture(w, h)
	pic.Fill(y, cb, cr)
	return pic
}

func convert(t *testing.T, pic *av.Picture, format av.PixelFormat) []byte {
	t.Helper()
	dst := make([]byte, format.FrameSize(pic.PicWidth, pic.PicHeight))
	require.NoError(t, Frame(dst, pic, format))
	return dst
}

func TestPackedSolidColor(t *testing.T) {
	tests := []struct {
		name      string
		y, cb, cr byte
	}{
		{name: "black", y: 16, cb: 128, cr: 128},
		{name: "white", y: 235, cb: 128, cr: 128},
		{name: "reddish", y: 81, cb: 90, cr: 240},
		{name: "bluish", y: 41, cb: 240, cr: 110},
		{name: "overshoot", y: 255, cb: 0, cr: 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pic := solidPicture(4, 4, tt.y, tt.cb, tt.cr)

			rgb := convert(t, pic, av.RGB)
			bgr := convert(t, pic, av.BGR)
			rgba := convert(t, pic, av.RGBA)
			bgra := convert(t, pic, av.BGRA)

			wr, wg, wb := referenceRGB(tt.y, tt.cb, tt.cr)
			assert.InDelta(t, wr, float64(rgb[0]), 1)
			assert.InDelta(t, wg, float64(rgb[1]), 1)
			assert.InDelta(t, wb, float64(rgb[2]), 1)

			for px := 0; px < 16; px++ {
				// bgr is rgb with the first and third byte swapped
				assert.Equal(t, rgb[px*3], bgr[px*3+2])
				assert.Equal(t, rgb[px*3+1], bgr[px*3+1])
				assert.Equal(t, rgb[px*3+2], bgr[px*3])

				assert.Equal(t, rgb[px*3:px*3+3], rgba[px*4:px*4+3])
				assert.Equal(t, bgr[px*3:px*3+3], bgra[px*4:px*4+3])
				assert.Equal(t, byte(0xFF), rgba[px*4+3])
				assert.Equal(t, byte(0xFF), bgra[px*4+3])
			}
		})
	}
}

func TestPackedExactExtremes(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0}, convert(t, solidPicture(2, 2, 16, 128, 128), av.RGB)[:3])
	assert.Equal(t, []byte{255, 255, 255}, convert(t, solidPicture(2, 2, 235, 128, 128), av.RGB)[:3])
	assert.Equal(t, []byte{0, 0, 0}, convert(t, solidPicture(2, 2, 0, 128, 128), av.RGB)[:3])
}

// The table lookup must round exactly like evaluating
// (y + k*c) * 255 directly in float32.
func TestPixelMatchesDirectExpression(t *testing.T) {
	crR := float32(2 * (1 - kr))
	cbG := float32(2 * ((1 - kb) * kb / ((1 - kb) - kr)))
	crG := float32(2 * ((1 - kr) * kr / ((1 - kb) - kr)))
	cbB := float32(2 * (1 - kb))

	mismatches := 0
	for y := 0; y < 256; y++ {
		yy := (float32(y) - yOffset) / yExcursion
		for cb := 0; cb < 256; cb++ {
			pb := (float32(cb) - cOffset) / cExcursion
			for cr := 0; cr < 256; cr++ {
				pr := (float32(cr) - cOffset) / cExcursion

				wr := clamp((yy + float32(crR*pr)) * 255)
				wg := clamp((yy - float32(cbG*pb) - float32(crG*pr)) * 255)
				wb := clamp((yy + float32(cbB*pb)) * 255)

				r, g, b := pixel(byte(y), byte(cb), byte(cr))
				if r != wr || g != wg || b != wb {
					if mismatches == 0 {
						t.Logf("first mismatch at Y=%d Cb=%d Cr=%d: got %d,%d,%d want %d,%d,%d",
							y, cb, cr, r, g, b, wr, wg, wb)
					}
					mismatches++
				}
			}
		}
	}
	assert.Zero(t, mismatches)
}

// gradientPicture gives every sample a distinct value so plane routing is visible.
func gradientPicture(w, h int) *av.Picture {
	pic := av.NewPicture(w, h)
	for i, plane := range pic.Planes {
		for j := range plane.Data {
			plane.Data[j] = byte(j*7 + i*50)
		}
	}
	return pic
}

func TestPlanarChromaOrder(t *testing.T) {
	pic := gradientPicture(8, 6)
	yv12 := convert(t, pic, av.YV12)
	iyuv := convert(t, pic, av.IYUV)

	lumaLen := 8 * 6
	chromaLen := 4 * 3

	assert.Equal(t, pic.Planes[0].Data, yv12[:lumaLen])
	assert.Equal(t, yv12[:lumaLen], iyuv[:lumaLen])

	cbStart, crStart := lumaLen, lumaLen+chromaLen
	assert.Equal(t, pic.Planes[1].Data, iyuv[cbStart:cbStart+chromaLen])
	assert.Equal(t, pic.Planes[2].Data, iyuv[crStart:crStart+chromaLen])
	assert.Equal(t, pic.Planes[2].Data, yv12[cbStart:cbStart+chromaLen])
	assert.Equal(t, pic.Planes[1].Data, yv12[crStart:crStart+chromaLen])
}

func TestVisibleRegionAndStride(t *testing.T) {
	pic := gradientPicture(16, 16)
	pic.PicX, pic.PicY = 2, 4
	pic.PicWidth, pic.PicHeight = 6, 4

	out := convert(t, pic, av.IYUV)

	luma := pic.Planes[0]
	for row := 0; row < 4; row++ {
		want := luma.Data[(row+4)*luma.Stride+2 : (row+4)*luma.Stride+8]
		assert.Equal(t, want, out[row*6:row*6+6], "luma row %d", row)
	}

	cb := pic.Planes[1]
	for row := 0; row < 2; row++ {
		want := cb.Data[(row+2)*cb.Stride+1 : (row+2)*cb.Stride+4]
		assert.Equal(t, want, out[24+row*3:24+row*3+3], "cb row %d", row)
	}

	rgb := convert(t, pic, av.RGB)
	r, g, b := referenceRGB(luma.Data[4*16+2], cb.Data[2*8+1], pic.Planes[2].Data[2*8+1])
	assert.InDelta(t, r, float64(rgb[0]), 1)
	assert.InDelta(t, g, float64(rgb[1]), 1)
	assert.InDelta(t, b, float64(rgb[2]), 1)
}

func TestOddDimensions(t *testing.T) {
	// tightly sized planes: any chroma index that does not floor-divide by 2 reads out of bounds
	pic := &av.Picture{PicWidth: 5, PicHeight: 3}
	pic.Planes[0] = av.Plane{Width: 5, Height: 3, Stride: 5, Data: make([]byte, 15)}
	pic.Planes[1] = av.Plane{Width: 3, Height: 2, Stride: 3, Data: make([]byte, 6)}
	pic.Planes[2] = av.Plane{Width: 3, Height: 2, Stride: 3, Data: make([]byte, 6)}
	pic.Fill(100, 60, 200)

	for _, format := range []av.PixelFormat{av.YV12, av.IYUV, av.RGB, av.RGBA, av.BGR, av.BGRA} {
		t.Run(format.String(), func(t *testing.T) {
			assert.NotPanics(t, func() {
				convert(t, pic, format)
			})
		})
	}

	assert.Equal(t, 15+2*2, PlanarSize(5, 3))
}

func TestFrameErrors(t *testing.T) {
	pic := solidPicture(4, 4, 16, 128, 128)

	err := Frame(make([]byte, 4*4*3-1), pic, av.RGB)
	assert.Equal(t, ErrShortBuffer, errors.Cause(err))

	err = Frame(make([]byte, 10), pic, av.YV12)
	assert.Equal(t, ErrShortBuffer, errors.Cause(err))

	err = Frame(make([]byte, 100), pic, av.PixelFormat(42))
	assert.Equal(t, av.ErrInvalidPixelFormat, errors.Cause(err))

	err = Frame(make([]byte, 100), nil, av.RGB)
	assert.Equal(t, ErrBadPicture, errors.Cause(err))

	pic.PicX = 2 // visible region now runs past the plane
	err = Frame(make([]byte, 100), pic, av.RGB)
	assert.Equal(t, ErrBadPicture, errors.Cause(err))
}
