package bins

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Bins is the storage contract for request bins. Implementations must make
// every method atomic with respect to every other.
type Bins interface {
	// CreateBin creates an empty bin under an identifier that is unique at the
	// time of creation.
	CreateBin() (BinSummary, error)
	// DeleteBin removes a bin, or returns ErrBinNotFound.
	DeleteBin(id ID) error
	// Bin returns a snapshot of the requests held by a bin.
	Bin(id ID) (Bin, error)
	// Summary returns the summary of a single bin.
	Summary(id ID) (BinSummary, error)
	// Summaries returns the summary of every live bin.
	Summaries() (map[ID]BinSummary, error)
	// InsertRequest appends a request to a bin, or returns ErrBinNotFound.
	InsertRequest(id ID, req Request) error
}

// InMemory is a Bins implementation backed by a map guarded by one mutex.
type InMemory struct {
	mu       sync.Mutex
	bins     map[ID]Bin
	poisoned bool

	newID func() ID
}

var _ Bins = (*InMemory)(nil)

// NewInMemory returns an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		bins:  make(map[ID]Bin),
		newID: NewID,
	}
}

// withLock runs fn while holding the store lock. A panic inside fn poisons
// the store; the panic is converted to ErrPoisoned for this and every later
// call.
func (s *InMemory) withLock(fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return ErrPoisoned
	}
	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			log.Error().Interface("panic", r).Msg("panic while holding bin store lock")
			err = fmt.Errorf("%w: %v", ErrPoisoned, r)
		}
	}()
	return fn()
}

// CreateBin implements Bins.
func (s *InMemory) CreateBin() (BinSummary, error) {
	var sum BinSummary
	err := s.withLock(func() error {
		id := s.newID()
		for {
			if _, taken := s.bins[id]; !taken {
				break
			}
			id = s.newID()
		}
		s.bins[id] = Bin{}
		sum = BinSummary{ID: id}
		return nil
	})
	return sum, err
}

// DeleteBin implements Bins.
func (s *InMemory) DeleteBin(id ID) error {
	return s.withLock(func() error {
		if _, ok := s.bins[id]; !ok {
			return ErrBinNotFound
		}
		delete(s.bins, id)
		return nil
	})
}

// Bin implements Bins. The returned slice is a copy.
func (s *InMemory) Bin(id ID) (Bin, error) {
	var out Bin
	err := s.withLock(func() error {
		b, ok := s.bins[id]
		if !ok {
			return ErrBinNotFound
		}
		out = make(Bin, len(b))
		copy(out, b)
		return nil
	})
	return out, err
}

// Summary implements Bins.
func (s *InMemory) Summary(id ID) (BinSummary, error) {
	var sum BinSummary
	err := s.withLock(func() error {
		b, ok := s.bins[id]
		if !ok {
			return ErrBinNotFound
		}
		sum = BinSummary{ID: id, RequestCount: len(b)}
		return nil
	})
	return sum, err
}

// Summaries implements Bins.
func (s *InMemory) Summaries() (map[ID]BinSummary, error) {
	var out map[ID]BinSummary
	err := s.withLock(func() error {
		out = make(map[ID]BinSummary, len(s.bins))
		for id, b := range s.bins {
			out[id] = BinSummary{ID: id, RequestCount: len(b)}
		}
		return nil
	})
	return out, err
}

// InsertRequest implements Bins.
func (s *InMemory) InsertRequest(id ID, req Request) error {
	return s.withLock(func() error {
		b, ok := s.bins[id]
		if !ok {
			return ErrBinNotFound
		}
		s.bins[id] = append(b, req)
		return nil
	})
}
