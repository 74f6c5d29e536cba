package binding

// sparseSet stores values keyed by a positive integer id with O(1)
// insert, lookup and swap-remove, and dense iteration.
type sparseSet[T any] struct {
	denseIDs    []int
	denseValues []T
	sparse      []int
}

func (s *sparseSet[T]) has(id int) bool {
	if id <= 0 || id-1 >= len(s.sparse) {
		return false
	}
	idx := s.sparse[id-1]
	return idx >= 0 && idx < len(s.denseIDs) && s.denseIDs[idx] == id
}

func (s *sparseSet[T]) get(id int) (T, bool) {
	if !s.has(id) {
		var zero T
		return zero, false
	}
	return s.denseValues[s.sparse[id-1]], true
}

func (s *sparseSet[T]) set(id int, v T) {
	if id <= 0 {
		return
	}
	for id-1 >= len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if s.has(id) {
		s.denseValues[s.sparse[id-1]] = v
		return
	}
	s.denseIDs = append(s.denseIDs, id)
	s.denseValues = append(s.denseValues, v)
	s.sparse[id-1] = len(s.denseIDs) - 1
}

func (s *sparseSet[T]) remove(id int) {
	if !s.has(id) {
		return
	}
	idx := s.sparse[id-1]
	last := len(s.denseIDs) - 1
	lastID := s.denseIDs[last]

	s.denseIDs[idx] = s.denseIDs[last]
	s.denseValues[idx] = s.denseValues[last]
	s.sparse[lastID-1] = idx

	var zero T
	s.denseValues[last] = zero
	s.denseIDs = s.denseIDs[:last]
	s.denseValues = s.denseValues[:last]
	s.sparse[id-1] = -1
}

func (s *sparseSet[T]) len() int {
	return len(s.denseIDs)
}

func (s *sparseSet[T]) values() []T {
	return s.denseValues
}

func (s *sparseSet[T]) clear() {
	s.denseIDs = nil
	s.denseValues = nil
	s.sparse = nil
}
