// Package bloom deduplicates URL lists with a Bloom filter in front of an
// exact set.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// DefaultFalsePositiveRate is the filter's target false positive rate.
const DefaultFalsePositiveRate = 0.001

// Set records URLs that have been seen. The Bloom filter answers most
// "never seen" lookups; a positive answer is confirmed against the exact
// set, so Set never reports a false duplicate.
type Set struct {
	f     *bloom.BloomFilter
	exact map[string]struct{}
}

// NewSet creates a Set sized for n expected URLs.
func NewSet(n uint) *Set {
	if n == 0 {
		n = 1
	}
	return &Set{
		f:     bloom.NewWithEstimates(n, DefaultFalsePositiveRate),
		exact: make(map[string]struct{}, n),
	}
}

// Add records url and reports whether it was new.
func (s *Set) Add(url string) bool {
	if s.f.TestString(url) {
		if _, ok := s.exact[url]; ok {
			return false
		}
	}
	s.f.AddString(url)
	s.exact[url] = struct{}{}
	return true
}

// Contains reports whether url has been added.
func (s *Set) Contains(url string) bool {
	if !s.f.TestString(url) {
		return false
	}
	_, ok := s.exact[url]
	return ok
}

// Len returns the number of distinct URLs added.
func (s *Set) Len() int {
	return len(s.exact)
}

// Dedupe returns urls without duplicates, keeping the first occurrence of
// each in its original position.
func Dedupe(urls []string) []string {
	s := NewSet(uint(len(urls)))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if s.Add(u) {
			out = append(out, u)
		}
	}
	return out
}

// Exclude returns urls without any member of excluded, preserving order.
func Exclude(urls, excluded []string) []string {
	if len(excluded) == 0 {
		return urls
	}
	s := NewSet(uint(len(excluded)))
	for _, u := range excluded {
		s.Add(u)
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !s.Contains(u) {
			out = append(out, u)
		}
	}
	return out
}
