package catalog

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/star/skywatch/internal/tle"
)

// MemoryStore is an in-process catalog. With a fixed seed its draws are
// reproducible, which the qualification tests rely on.
type MemoryStore struct {
	mu      sync.Mutex
	entries []tle.TLEEntry
	index   map[string]int
	rng     *rand.Rand
}

// NewMemoryStore returns a store holding entries, drawing with the given seed.
func NewMemoryStore(seed uint64, entries ...tle.TLEEntry) *MemoryStore {
	m := &MemoryStore{
		index: make(map[string]int),
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	m.put(entries)
	return m
}

func (m *MemoryStore) put(entries []tle.TLEEntry) int {
	n := 0
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		if i, ok := m.index[e.ID]; ok {
			old := m.entries[i]
			if e.ObjectType == "" {
				e.ObjectType = old.ObjectType
			}
			if e.CountryCode == "" {
				e.CountryCode = old.CountryCode
			}
			m.entries[i] = e
		} else {
			m.index[e.ID] = len(m.entries)
			m.entries = append(m.entries, e)
		}
		n++
	}
	return n
}

// Count returns the number of entries with both element-set lines.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, e := range m.entries {
		if hasLines(e) {
			n++
		}
	}
	return n, nil
}

// RandomSample picks up to n eligible entries uniformly without replacement.
func (m *MemoryStore) RandomSample(ctx context.Context, exclude map[string]struct{}, n int) ([]tle.TLEEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	pool := make([]tle.TLEEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if _, skip := exclude[e.ID]; skip || !hasLines(e) {
			continue
		}
		pool = append(pool, e)
	}
	if n > len(pool) {
		n = len(pool)
	}
	for i := 0; i < n; i++ {
		j := i + m.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n], nil
}

// Search matches by catalog number, or by case-insensitive name substring.
func (m *MemoryStore) Search(ctx context.Context, q Query, limit int) ([]tle.TLEEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := strings.ToLower(strings.TrimSpace(q.Name))
	var out []tle.TLEEntry
	for _, e := range m.entries {
		switch {
		case q.NORADID != 0:
			if e.NORADID != q.NORADID {
				continue
			}
		case name != "":
			if !strings.Contains(strings.ToLower(e.Name), name) {
				continue
			}
		default:
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Upsert inserts or replaces entries by ID.
func (m *MemoryStore) Upsert(ctx context.Context, entries []tle.TLEEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(entries), nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
