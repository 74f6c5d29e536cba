package physics

import "strconv"

// Handle identifies a body registered with a World. The zero Handle is
// never valid. Handles carry a generation, so a handle to a removed body
// stays dead after its slot is reused.
type Handle uint64

const handleIndexBits = 32

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<handleIndexBits | uint64(index))
}

func (h Handle) index() uint32 {
	return uint32(h)
}

func (h Handle) generation() uint32 {
	return uint32(uint64(h) >> handleIndexBits)
}

// Index is the 1-based slot index of the handle, stable while the body lives.
func (h Handle) Index() int {
	return int(h.index())
}

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h.index()), 10) + "v" + strconv.FormatUint(uint64(h.generation()), 10)
}

func (h Handle) Valid() bool {
	return h.index() > 0
}

type slot struct {
	gen  uint32
	body *rigidBody
}

// bodyStore tracks body slots, generations and free indices.
type bodyStore struct {
	slots []slot
	free  []uint32
	count int
}

func (s *bodyStore) insert(b *rigidBody) Handle {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, slot{})
		idx = uint32(len(s.slots))
	}
	sl := &s.slots[idx-1]
	sl.body = b
	s.count++
	return makeHandle(idx, sl.gen)
}

func (s *bodyStore) get(h Handle) *rigidBody {
	idx := h.index()
	if idx == 0 || int(idx) > len(s.slots) {
		return nil
	}
	sl := s.slots[idx-1]
	if sl.gen != h.generation() {
		return nil
	}
	return sl.body
}

func (s *bodyStore) remove(h Handle) *rigidBody {
	b := s.get(h)
	if b == nil {
		return nil
	}
	sl := &s.slots[h.index()-1]
	sl.body = nil
	sl.gen++
	s.free = append(s.free, h.index())
	s.count--
	return b
}

func (s *bodyStore) each(fn func(Handle, *rigidBody)) {
	for i := range s.slots {
		sl := s.slots[i]
		if sl.body == nil {
			continue
		}
		fn(makeHandle(uint32(i+1), sl.gen), sl.body)
	}
}
