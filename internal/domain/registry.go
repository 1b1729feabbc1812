package domain

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	shortIDLength   = 7
	shortIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	maxAllocations  = 1000
)

// IDGenerator produces candidate participant IDs. Candidates may collide; the registry retries.
type IDGenerator func() string

// UUIDGenerator returns random UUIDv4 strings.
func UUIDGenerator() string {
	return uuid.NewString()
}

// ShortIDGenerator returns 7-character alphanumeric IDs drawn from rnd.
func ShortIDGenerator(rnd *rand.Rand) IDGenerator {
	return func() string {
		var b strings.Builder
		b.Grow(shortIDLength)
		for i := 0; i < shortIDLength; i++ {
			b.WriteByte(shortIDAlphabet[rnd.Intn(len(shortIDAlphabet))])
		}
		return b.String()
	}
}

// NewIDGenerator picks a generator by config name ("uuid" or "short").
func NewIDGenerator(format string, rnd *rand.Rand) (IDGenerator, error) {
	switch format {
	case "", "uuid":
		return UUIDGenerator, nil
	case "short":
		return ShortIDGenerator(rnd), nil
	}
	return nil, fmt.Errorf("unknown id format %q: %w", format, ErrInvalidConfiguration)
}

// IDRegistry hands out participant IDs that are unique among everything it has allocated or reserved.
// The simulation driver owns it; there is no process-wide registry.
type IDRegistry struct {
	mu       sync.Mutex
	generate IDGenerator
	used     map[string]struct{}
}

func NewIDRegistry(generate IDGenerator) *IDRegistry {
	if generate == nil {
		generate = UUIDGenerator
	}
	return &IDRegistry{
		generate: generate,
		used:     make(map[string]struct{}),
	}
}

// Allocate generates a fresh ID and records it.
func (r *IDRegistry) Allocate() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < maxAllocations; i++ {
		id := r.generate()
		if _, taken := r.used[id]; taken {
			continue
		}
		r.used[id] = struct{}{}
		return id, nil
	}
	return "", fmt.Errorf("no free id after %d attempts: %w", maxAllocations, ErrDuplicateParticipantID)
}

// Reserve records a caller-chosen ID.
func (r *IDRegistry) Reserve(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.used[id]; taken {
		return fmt.Errorf("reserve %q: %w", id, ErrDuplicateParticipantID)
	}
	r.used[id] = struct{}{}
	return nil
}

func (r *IDRegistry) Contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.used[id]
	return ok
}

func (r *IDRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.used)
}
