package llm

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
)

// ErrNoKeys is returned when the key pool is empty.
var ErrNoKeys = errors.New("no API keys configured")

// KeySelector picks an API key for the next request.
type KeySelector interface {
	Next() (string, error)
}

// ParseKeyPool splits a comma-separated credential string into a pool,
// dropping empty entries.
func ParseKeyPool(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// RandomSelector picks a key uniformly at random per call.
type RandomSelector struct {
	keys []string
	mu   sync.Mutex
	rng  *rand.Rand
}

// NewRandomSelector creates a selector over the given pool using the
// provided random source. A nil rng panics; pass rand.New(rand.NewSource(...)).
func NewRandomSelector(keys []string, rng *rand.Rand) *RandomSelector {
	return &RandomSelector{keys: keys, rng: rng}
}

// Next returns a uniformly random key from the pool.
func (s *RandomSelector) Next() (string, error) {
	if len(s.keys) == 0 {
		return "", ErrNoKeys
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[s.rng.Intn(len(s.keys))], nil
}

// RoundRobinSelector cycles through the pool in order.
type RoundRobinSelector struct {
	keys []string
	mu   sync.Mutex
	next int
}

// NewRoundRobinSelector creates a selector that rotates through the pool.
func NewRoundRobinSelector(keys []string) *RoundRobinSelector {
	return &RoundRobinSelector{keys: keys}
}

// Next returns the next key in rotation.
func (s *RoundRobinSelector) Next() (string, error) {
	if len(s.keys) == 0 {
		return "", ErrNoKeys
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.keys[s.next%len(s.keys)]
	s.next++
	return key, nil
}
