package subtitle

import (
	"fmt"
	"sort"
	"sync"
)

// LineUpdate carries a reconciled translation for a single line.
type LineUpdate struct {
	Number      int
	Translation string
	ErrorReason string
}

// Store is the ordered collection of lines for one document.
//
// Lines are fixed at construction: never reordered, added, or removed. Each
// translating batch owns a contiguous, non-overlapping number range, but
// cross-range reads (progress counts, snapshots) run concurrently with other
// workers' writes, so access goes through a read-write mutex.
type Store struct {
	mu       sync.RWMutex
	lines    []Line
	byNumber map[int]int
}

// NewStore builds a store from an ordered line sequence. Line numbers must be
// unique and strictly increasing.
func NewStore(lines []Line) (*Store, error) {
	byNumber := make(map[int]int, len(lines))
	prev := 0
	for i, line := range lines {
		if line.Number <= prev {
			return nil, fmt.Errorf("line %d at position %d: numbers must be strictly increasing", line.Number, i)
		}
		prev = line.Number
		byNumber[line.Number] = i
	}
	owned := make([]Line, len(lines))
	copy(owned, lines)
	return &Store{lines: owned, byNumber: byNumber}, nil
}

// Len returns the number of lines.
func (s *Store) Len() int {
	return len(s.lines)
}

// Lines returns a copy of every line in document order.
func (s *Store) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Get returns the line with the given number.
func (s *Store) Get(number int) (Line, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byNumber[number]
	if !ok {
		return Line{}, false
	}
	return s.lines[idx], true
}

// Range returns copies of the lines numbered first..last inclusive, in order.
func (s *Store) Range(first, last int) ([]Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start, ok := s.byNumber[first]
	if !ok {
		return nil, fmt.Errorf("unknown line number %d", first)
	}
	end, ok := s.byNumber[last]
	if !ok {
		return nil, fmt.Errorf("unknown line number %d", last)
	}
	if end < start {
		return nil, fmt.Errorf("invalid range %d..%d", first, last)
	}
	out := make([]Line, end-start+1)
	copy(out, s.lines[start:end+1])
	return out, nil
}

// ApplyUpdates writes reconciled translations back into the store. Updates
// for unknown line numbers are rejected. Re-applying is deterministic: the
// latest update for a number wins.
func (s *Store) ApplyUpdates(updates []LineUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, update := range updates {
		idx, ok := s.byNumber[update.Number]
		if !ok {
			return fmt.Errorf("unknown line number %d", update.Number)
		}
		s.lines[idx].Translation = update.Translation
		s.lines[idx].ErrorReason = update.ErrorReason
	}
	return nil
}

// TranslatedCount returns how many lines have a translation.
func (s *Store) TranslatedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, line := range s.lines {
		if line.Translated() {
			count++
		}
	}
	return count
}

// Numbers returns every line number in order.
func (s *Store) Numbers() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	numbers := make([]int, 0, len(s.lines))
	for _, line := range s.lines {
		numbers = append(numbers, line.Number)
	}
	sort.Ints(numbers)
	return numbers
}
