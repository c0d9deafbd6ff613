package testutil

import (
	"math/rand"
	"slices"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slabkit/region"
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
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
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

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Size returns a request size in [lo, hi].
func (r *RNG) Size(lo, hi int) int {
	return lo + r.Intn(hi-lo+1)
}

// Sizes returns n request sizes in [lo, hi].
func (r *RNG) Sizes(n, lo, hi int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, n)
	for i := range out {
		out[i] = lo + r.rand.Intn(hi-lo+1)
	}
	return out
}

// Fill overwrites b with pseudo-random bytes.
func (r *RNG) Fill(b []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.rand.Read(b)
}

// Region returns a zeroed, 64-byte aligned region of size bytes.
func Region(t testing.TB, size int) region.Region {
	t.Helper()
	r := region.Alloc(size)
	require.Equal(t, size, r.Len())
	return r
}

// SkewedRegion returns a region of size bytes that starts skew bytes past an
// 8-byte boundary.
func SkewedRegion(t testing.TB, size, skew int) region.Region {
	t.Helper()
	base := region.Alloc(size + region.Align)
	r, err := base.Sub(skew%region.Align, size)
	require.NoError(t, err)
	return r
}

// RequireDisjoint fails the test if any two buffers share a byte.
func RequireDisjoint(t testing.TB, bufs [][]byte) {
	t.Helper()
	type span struct{ lo, hi uintptr }
	spans := make([]span, 0, len(bufs))
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		lo := uintptr(unsafe.Pointer(&b[0])) //nolint:gosec // address comparison
		spans = append(spans, span{lo, lo + uintptr(len(b))})
	}
	slices.SortFunc(spans, func(a, b span) int {
		switch {
		case a.lo < b.lo:
			return -1
		case a.lo > b.lo:
			return 1
		default:
			return 0
		}
	})
	for i := 1; i < len(spans); i++ {
		require.LessOrEqual(t, spans[i-1].hi, spans[i].lo, "allocations %d and %d overlap", i-1, i)
	}
}
