package dynamo

import "fmt"

// Store holds the canonical major and minor body collections.
type Store struct {
	major []Body
	minor []Body
}

func NewStore() *Store {
	return &Store{}
}

// Load replaces both collections wholesale. Bodies with a non-finite
// position or velocity are dropped; the number dropped is returned.
func (s *Store) Load(major, minor []Body) int {
	var dropped int
	s.major, dropped = filterValid(major)
	var d int
	s.minor, d = filterValid(minor)
	return dropped + d
}

func filterValid(in []Body) ([]Body, int) {
	out := make([]Body, 0, len(in))
	for _, b := range in {
		if b.IsValid() {
			out = append(out, b)
		}
	}
	return out, len(in) - len(out)
}

func (s *Store) MajorCount() int { return len(s.major) }
func (s *Store) MinorCount() int { return len(s.minor) }

// Major returns the major body at index i. It panics if i is out of range.
func (s *Store) Major(i int) *Body { return &s.major[i] }

// Minor returns the minor body at index i. It panics if i is out of range.
func (s *Store) Minor(i int) *Body { return &s.minor[i] }

// Sink returns the index of the absorbing major body, or -1 when empty.
func (s *Store) Sink() int {
	return len(s.major) - 1
}

// MarkCollided increments the running absorption counter of major body i.
func (s *Store) MarkCollided(i int) {
	b := &s.major[i]
	if b.Collided < 0 {
		b.Collided = 0
	}
	b.Collided++
}

// Consumed returns the sink's absorption count.
func (s *Store) Consumed() int {
	sink := s.Sink()
	if sink < 0 || s.major[sink].Collided < 0 {
		return 0
	}
	return s.major[sink].Collided
}

func (s *Store) MajorSnapshot() []Body { return Clone(s.major) }
func (s *Store) MinorSnapshot() []Body { return Clone(s.minor) }

// MajorView and MinorView return the store's own slices. Callers must not
// modify them or keep them past the next commit.
func (s *Store) MajorView() []Body { return s.major }
func (s *Store) MinorView() []Body { return s.minor }

// CommitMajor replaces major body state. The slice length must match.
func (s *Store) CommitMajor(bodies []Body) error {
	if len(bodies) != len(s.major) {
		return fmt.Errorf("commit major: have %d, got %d: %w", len(s.major), len(bodies), ErrDimensionMismatch)
	}
	copy(s.major, bodies)
	return nil
}

// CommitMinor replaces minor body state. The slice length must match.
func (s *Store) CommitMinor(bodies []Body) error {
	if len(bodies) != len(s.minor) {
		return fmt.Errorf("commit minor: have %d, got %d: %w", len(s.minor), len(bodies), ErrDimensionMismatch)
	}
	copy(s.minor, bodies)
	return nil
}
