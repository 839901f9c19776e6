// Package lock provides mutual exclusion keyed by resource identity. The
// order workflow holds the locks of every product it touches for the whole
// check-and-decrement sequence.
package lock

import (
	"context"
	"sort"
	"strconv"
)

// Locker acquires all keys or none. The returned unlock releases every key
// and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, keys []string) (unlock func(), err error)
}

// ProductKeys turns product ids into lock keys.
func ProductKeys(ids []int64) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, "product:"+strconv.FormatInt(id, 10))
	}
	return keys
}

// normalize dedupes and sorts keys so that every caller acquires them in
// the same order.
func normalize(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
