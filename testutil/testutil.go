package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63 returns a non-negative pseudo-random int64.
func (r *RNG) Int63() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63()
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FillBytes fills dst with random bytes, locking only once per call.
func (r *RNG) FillBytes(dst []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fillBytesLocked(dst)
}

// Bytes returns a fresh random payload of the given size.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := make([]byte, n)
	r.fillBytesLocked(b)
	return b
}

func (r *RNG) fillBytesLocked(dst []byte) {
	// rand.Read never fails for the math/rand source.
	_, _ = r.rand.Read(dst)
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Token returns a random lowercase alphanumeric string of length n,
// usable as a dataset ID or key segment.
func (r *RNG) Token(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := make([]byte, n)
	for i := range b {
		b[i] = tokenAlphabet[r.rand.Intn(len(tokenAlphabet))]
	}
	return string(b)
}

// Rows generates num dataset rows with deterministic example IDs and random
// payloads of payloadSize bytes. The "example_id" field is suitable as the
// primary key; rows are returned in ID order.
func (r *RNG) Rows(num, payloadSize int) []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]map[string]any, num)
	for i := range rows {
		payload := make([]byte, payloadSize)
		r.fillBytesLocked(payload)
		rows[i] = map[string]any{
			"example_id": fmt.Sprintf("ex-%06d", i),
			"payload":    payload,
		}
	}
	return rows
}

// Partitions assigns each of n rows one of the given partition names with a
// Zipfian skew: s=0 gives a uniform assignment, larger s concentrates rows
// in the leading partitions the way real splits concentrate in "train".
func (r *RNG) Partitions(n int, names []string, s float64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	parts := make([]string, n)
	for i := range parts {
		if s == 0 {
			parts[i] = names[r.rand.Intn(len(names))]
		} else {
			parts[i] = names[r.zipfLocked(len(names), s)]
		}
	}
	return parts
}

// zipfLocked samples a Zipf-distributed value in [0, n) (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}
