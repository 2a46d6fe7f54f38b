package tasks

import "sync"

// Sequencer hands out increasing tokens per request kind so late responses can be recognized and dropped.
//
// Issue a token with [Sequencer.Next] when a request starts and check [Sequencer.Latest] when it completes.
type Sequencer struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// NewSequencer creates an empty [Sequencer].
func NewSequencer() *Sequencer {
	return &Sequencer{latest: map[string]uint64{}}
}

// Next issues a new token for key, superseding every earlier token for it.
func (s *Sequencer) Next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[key]++
	return s.latest[key]
}

// Latest reports whether token is still the newest issued for key.
func (s *Sequencer) Latest(key string, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token != 0 && s.latest[key] == token
}

// Invalidate supersedes every outstanding token for key without starting a request,
// e.g. when the view that asked for the data goes away.
func (s *Sequencer) Invalidate(key string) {
	s.Next(key)
}
