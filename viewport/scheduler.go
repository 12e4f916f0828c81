package viewport

import "time"

// Handle identifies one scheduled frame callback.
type Handle interface{}

// FrameScheduler arms a single callback for the next animation frame.
// Motion loops (inertia, animated reset) re-arm themselves each tick until
// their termination condition is met. The indirection exists so the physics
// can run against a synchronous fake in tests.
type FrameScheduler interface {
	Schedule(fn func()) Handle
	Cancel(h Handle)
}

// TimerScheduler drives frames off the wall clock at roughly 60fps.
type TimerScheduler struct {
	Interval time.Duration
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{Interval: 16 * time.Millisecond}
}

func (s *TimerScheduler) Schedule(fn func()) Handle {
	return time.AfterFunc(s.Interval, fn)
}

func (s *TimerScheduler) Cancel(h Handle) {
	if t, ok := h.(*time.Timer); ok && t != nil {
		t.Stop()
	}
}
