// internal/cv/store.go
package cv

import "fmt"

// Reader is the read side of the CV block.
// Consumers derive their runtime configuration from it at start-up.
type Reader interface {
	Get(n int) byte
}

// Store is an in-memory CV block.
// Durability is owned by whoever seeds it; the store only guards the layout.
type Store struct {
	values [Count]byte
}

// NewStore returns a store holding the factory defaults with overrides applied.
// Overrides bypass the writable check: they model the contents of the
// non-volatile memory, not programming commands.
func NewStore(overrides map[int]byte) (*Store, error) {
	s := &Store{values: Defaults}
	for n, v := range overrides {
		if n < 1 || n > Count {
			return nil, fmt.Errorf("cv: override CV%d out of range 1..%d", n, Count)
		}
		s.values[n-1] = v
	}
	return s, nil
}

// Get returns the value of CV n. Out of range CVs read as 0.
func (s *Store) Get(n int) byte {
	if n < 1 || n > Count {
		return 0
	}
	return s.values[n-1]
}

// Set performs a programming write of CV n.
// Writing VendorResetCode to VendorID restores the factory defaults.
func (s *Store) Set(n int, v byte) error {
	if n < 1 || n > Count {
		return fmt.Errorf("cv: CV%d out of range 1..%d", n, Count)
	}
	if !writable[n] {
		return fmt.Errorf("cv: CV%d is read-only", n)
	}
	if n == VendorID && v == VendorResetCode {
		s.Reset()
		return nil
	}
	s.values[n-1] = v
	return nil
}

// Reset restores the factory defaults.
func (s *Store) Reset() {
	s.values = Defaults
}

// Writable reports whether CV n accepts programming writes.
func Writable(n int) bool {
	return writable[n]
}
