package app

import (
	"context"
	"time"
)

// Pacer releases frames at their presentation time measured from the first
// frame. A frame already more than one frame interval late should be skipped
// so playback catches up.
type Pacer struct {
	start time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPacer(opts ...pacerOption) *Pacer {
	return (&Pacer{}).loadOptions(opts...)
}

func (p *Pacer) loadOptions(opts ...pacerOption) *Pacer {
	for _, opt := range opts {
		opt(p)
	}

	if p.now == nil {
		p.now = time.Now
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}

	return p
}

type pacerOption func(*Pacer)

func WithPacerClock(now func() time.Time) pacerOption {
	return func(p *Pacer) {
		p.now = now
	}
}

func WithPacerSleep(sleep func(ctx context.Context, d time.Duration) error) pacerOption {
	return func(p *Pacer) {
		p.sleep = sleep
	}
}

// Wait blocks until the frame stamped playMS is due. It returns false when
// the frame is late and should be dropped. interval 0 never drops.
func (p *Pacer) Wait(ctx context.Context, playMS, interval uint32) (bool, error) {
	now := p.now()
	if p.start.IsZero() {
		p.start = now.Add(-time.Duration(playMS) * time.Millisecond)
	}

	due := p.start.Add(time.Duration(playMS) * time.Millisecond)
	late := now.Sub(due)
	if interval > 0 && late > time.Duration(interval)*time.Millisecond {
		return false, nil
	}

	if late < 0 {
		if err := p.sleep(ctx, -late); err != nil {
			return false, err
		}
	}
	return true, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
