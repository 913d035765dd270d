package av

// Plane is one color plane of a decoded picture. Stride may exceed Width.
type Plane struct {
	Width  int
	Height int
	Stride int
	Data   []byte
}

// YCbCrBuffer holds the Y, Cb and Cr planes, in that order.
type YCbCrBuffer [3]Plane

// Picture is a decoded planar 4:2:0 picture together with the visible
// rectangle inside the (padded) coded frame.
type Picture struct {
	Planes YCbCrBuffer

	PicX      int
	PicY      int
	PicWidth  int
	PicHeight int
}

// NewPicture allocates a picture with tightly packed 4:2:0 planes.
func NewPicture(frameWidth, frameHeight int) *Picture {
	cw, ch := (frameWidth+1)/2, (frameHeight+1)/2
	pic := &Picture{
		PicWidth:  frameWidth,
		PicHeight: frameHeight,
	}
	pic.Planes[0] = Plane{Width: frameWidth, Height: frameHeight, Stride: frameWidth, Data: make([]byte, frameWidth*frameHeight)}
	for i := 1; i < 3; i++ {
		pic.Planes[i] = Plane{Width: cw, Height: ch, Stride: cw, Data: make([]byte, cw*ch)}
	}

	return pic
}

// Fill sets every sample of each plane to a constant.
func (p *Picture) Fill(y, cb, cr byte) {
	for i, v := range [3]byte{y, cb, cr} {
		data := p.Planes[i].Data
		for j := range data {
			data[j] = v
		}
	}
}
