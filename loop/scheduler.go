package loop

// Token identifies a requested frame callback.
type Token uint64

// FrameFunc is a per-frame callback. A non-nil error is reported to the
// scheduler's owner.
type FrameFunc func() error

// Scheduler is the host's "next frame" primitive.
type Scheduler interface {
	RequestFrame(fn FrameFunc) Token
	CancelFrame(token Token)
}

// ResizeSource delivers surface size changes. The returned function
// unsubscribes.
type ResizeSource interface {
	OnResize(fn func(width, height int)) (cancel func())
}

type request struct {
	token Token
	fn    FrameFunc
}

// ManualScheduler runs frame callbacks only when asked. It backs tests and
// headless runs.
type ManualScheduler struct {
	next    Token
	queue   []request
	ran     int
	maxSeen int
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) RequestFrame(fn FrameFunc) Token {
	s.next++
	s.queue = append(s.queue, request{token: s.next, fn: fn})
	if len(s.queue) > s.maxSeen {
		s.maxSeen = len(s.queue)
	}
	return s.next
}

func (s *ManualScheduler) CancelFrame(token Token) {
	for i, r := range s.queue {
		if r.token == token {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

// RunFrame runs the oldest pending callback. It reports false when nothing
// was pending.
func (s *ManualScheduler) RunFrame() (bool, error) {
	if len(s.queue) == 0 {
		return false, nil
	}
	r := s.queue[0]
	s.queue = s.queue[1:]
	s.ran++
	return true, r.fn()
}

// Pending is the number of outstanding requests.
func (s *ManualScheduler) Pending() int {
	return len(s.queue)
}

// Ran is the number of callbacks executed.
func (s *ManualScheduler) Ran() int {
	return s.ran
}

// MaxPending is the largest number of simultaneously outstanding requests
// observed.
func (s *ManualScheduler) MaxPending() int {
	return s.maxSeen
}
