// Package tally holds the small aggregation primitives the reports are
// built from: ordered frequency counts, token explosion, null-skipping
// means and zero-filled time series.
package tally

import (
	"fmt"
	"sort"
	"strings"
)

// Entry is one key and its count.
type Entry[K comparable] struct {
	Key   K
	Count int
}

// Counter counts occurrences and remembers the order in which keys were
// first seen so that rankings break ties deterministically.
type Counter[K comparable] struct {
	counts map[K]int
	order  []K
}

// NewCounter returns an empty Counter.
func NewCounter[K comparable]() *Counter[K] {
	return &Counter[K]{counts: map[K]int{}}
}

// Add increments key by one.
func (c *Counter[K]) Add(key K) {
	c.AddN(key, 1)
}

// AddN increments key by n.
func (c *Counter[K]) AddN(key K, n int) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
}

// Get returns the count for key.
func (c *Counter[K]) Get(key K) int {
	return c.counts[key]
}

// Len is the number of distinct keys.
func (c *Counter[K]) Len() int {
	return len(c.order)
}

// Keys returns the distinct keys in first-seen order.
func (c *Counter[K]) Keys() []K {
	return append([]K(nil), c.order...)
}

// Top returns at most n entries ordered by count descending. Equal counts
// keep first-seen order. n <= 0 returns every entry.
func (c *Counter[K]) Top(n int) []Entry[K] {
	entries := make([]Entry[K], 0, len(c.order))
	for _, key := range c.order {
		entries = append(entries, Entry[K]{Key: key, Count: c.counts[key]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Tokens splits a delimited multi-value cell, trimming each token and
// dropping empty ones.
func Tokens(raw, sep string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// CountTokens explodes every value on ";" and counts the tokens.
func CountTokens(values ...string) *Counter[string] {
	counter := NewCounter[string]()
	for _, raw := range values {
		for _, token := range Tokens(raw, ";") {
			counter.Add(token)
		}
	}
	return counter
}

// FormatTop renders entries as "name (n), name (n)", or fallback when
// there are none.
func FormatTop(entries []Entry[string], fallback string) string {
	if len(entries) == 0 {
		return fallback
	}
	parts := make([]string, len(entries))
	for i, entry := range entries {
		parts[i] = fmt.Sprintf("%s (%d)", entry.Key, entry.Count)
	}
	return strings.Join(parts, ", ")
}
