package mapsource

import (
	"cmp"
	"fmt"
	"slices"
)

// Key identifies one map: the month's bundle and the index within it.
type Key struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Index int `json:"index"`
}

// String formats the key as YYYY-MM/index.
func (k Key) String() string {
	return fmt.Sprintf("%04d-%02d/%d", k.Year, k.Month, k.Index)
}

// ParseKey parses the String form of a key.
func ParseKey(s string) (Key, error) {
	var k Key
	n, err := fmt.Sscanf(s, "%d-%d/%d", &k.Year, &k.Month, &k.Index)
	if err != nil || n != 3 {
		return Key{}, fmt.Errorf("invalid map key %q, want YYYY-MM/index", s)
	}
	if k.Month < 1 || k.Month > 12 || k.Index < 0 {
		return Key{}, fmt.Errorf("invalid map key %q: month or index out of range", s)
	}
	return k, nil
}

// Compare orders keys by year, month, then index.
func Compare(a, b Key) int {
	if c := cmp.Compare(a.Year, b.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Month, b.Month); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// SortKeys sorts keys in place.
func SortKeys(keys []Key) { slices.SortFunc(keys, Compare) }
