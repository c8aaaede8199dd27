// Package catalog stores candidate objects and draws random batches from
// them for qualification.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/star/skywatch/internal/tle"
)

// ErrUnavailable is wrapped by every failure to reach the backing store.
var ErrUnavailable = errors.New("catalog unavailable")

// SearchLimit caps the number of search matches returned.
const SearchLimit = 10

// Store is what the qualification loop needs from a catalog. Only entries
// with both element-set lines present are counted or sampled.
type Store interface {
	Count(ctx context.Context) (int, error)
	// RandomSample returns up to n entries whose ID is not in exclude, in no
	// particular order.
	RandomSample(ctx context.Context, exclude map[string]struct{}, n int) ([]tle.TLEEntry, error)
}

// Query selects entries by catalog number or by name. A non-zero NORADID
// takes precedence over Name.
type Query struct {
	Name    string
	NORADID int
}

// Empty reports whether the query has no search term.
func (q Query) Empty() bool {
	return q.NORADID == 0 && strings.TrimSpace(q.Name) == ""
}

// Searcher finds entries for the search endpoint.
type Searcher interface {
	Search(ctx context.Context, q Query, limit int) ([]tle.TLEEntry, error)
}

// Catalog is a store that can also be searched, written and probed.
type Catalog interface {
	Store
	Searcher
	Upsert(ctx context.Context, entries []tle.TLEEntry) (int, error)
	Ping(ctx context.Context) error
}

func hasLines(e tle.TLEEntry) bool {
	return e.Line1 != "" && e.Line2 != ""
}

func excludeIDs(exclude map[string]struct{}) []string {
	ids := make([]string, 0, len(exclude))
	for id := range exclude {
		ids = append(ids, id)
	}
	return ids
}
