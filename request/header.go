// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"sort"
	"strings"
)

// A Header is a case-insensitive, multi-valued header map. Keys are
// stored in lower case; methods lower-case the key they are given.
// Repeated header lines with the same name are kept as an ordered
// sequence of values.
//
// A Header built as a map literal may contain keys which are not in
// lower case. Canonicalize fixes such a Header in place.
type Header map[string][]string

// Add appends value to the values for key.
func (h Header) Add(key, value string) {
	k := strings.ToLower(key)
	h[k] = append(h[k], value)
}

// Set replaces any values for key with the single value.
func (h Header) Set(key, value string) {
	h[strings.ToLower(key)] = []string{value}
}

// Get returns the first value for key, or the empty string.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	v := h[strings.ToLower(key)]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Values returns all values for key.
func (h Header) Values(key string) []string {
	if h == nil {
		return nil
	}
	return h[strings.ToLower(key)]
}

// Has reports whether key has at least one value.
func (h Header) Has(key string) bool {
	return len(h.Values(key)) > 0
}

// Del removes all values for key.
func (h Header) Del(key string) {
	delete(h, strings.ToLower(key))
}

// Clone returns a deep copy of h. The clone of a nil Header is nil.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	h2 := make(Header, len(h))
	for k, v := range h {
		h2[k] = append([]string(nil), v...)
	}
	return h2
}

// Canonicalize lower-cases every key in h, merging the values of keys
// which differ only in case. Values of merged keys are appended in
// sorted key order so the result is deterministic.
func (h Header) Canonicalize() {
	var mixed []string
	for k := range h {
		if k != strings.ToLower(k) {
			mixed = append(mixed, k)
		}
	}
	sort.Strings(mixed)
	for _, k := range mixed {
		v := h[k]
		delete(h, k)
		lower := strings.ToLower(k)
		h[lower] = append(h[lower], v...)
	}
}
