package player

import "github.com/pkg/errors"

var (
	ErrAlreadyOpen     = errors.New("player already open")
	ErrNotOpen         = errors.New("player not open")
	ErrAlreadyPrepared = errors.New("player already prepared")
	ErrNotPrepared     = errors.New("player not prepared")
	ErrSessionFailed   = errors.New("decode session failed")

	// header negotiation
	ErrMissingStream          = errors.New("missing video or audio stream")
	ErrUnexpectedEOF          = errors.New("stream ended during header negotiation")
	ErrFrameTooLarge          = errors.New("frame dimensions too large")
	ErrUnsupportedColorSpace  = errors.New("unsupported color space")
	ErrUnsupportedPixelFormat = errors.New("unsupported chroma subsampling")
	ErrNotVideoEngine         = errors.New("video probe does not provide a decode engine")
)

// Status is the signed result every facade call reports: negative is fatal,
// zero is a benign no-op, positive is success.
type Status int

const (
	StatusError   Status = -1
	StatusNoFrame Status = 0
	StatusOK      Status = 1
	StatusFrame          = StatusOK
)

func (s Status) String() string {
	switch {
	case s < 0:
		return "error"
	case s == 0:
		return "no frame"
	default:
		return "ok"
	}
}
