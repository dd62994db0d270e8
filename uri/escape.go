// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package uri

import "strings"

type encoding int

const (
	encodePath encoding = iota
	encodeQuery
	encodeReference
)

const upperhex = "0123456789ABCDEF"

// shouldEscape reports whether c must be percent-encoded when it appears
// in the URL component identified by mode. Unreserved and reserved
// characters from RFC 3986 are left alone.
func shouldEscape(c byte, mode encoding) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	}
	switch c {
	case '-', '.', '_', '~':
		return false
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', ':', '@', '/':
		return false
	case '?':
		return mode == encodePath
	case '#', '[', ']':
		return mode != encodeReference
	}
	return true
}

func ishex(c byte) bool {
	switch {
	case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		return true
	}
	return false
}

// escape percent-encodes the characters of s which are not legal in the
// given component. A '%' which starts a well-formed escape sequence is
// kept, so already-escaped input is never double-encoded.
func escape(s string, mode encoding) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if needsEscape(s, i, mode) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if needsEscape(s, i, mode) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func needsEscape(s string, i int, mode encoding) bool {
	c := s[i]
	if c == '%' {
		return i+2 >= len(s) || !ishex(s[i+1]) || !ishex(s[i+2])
	}
	return shouldEscape(c, mode)
}

// Escape percent-encodes the characters of a path which are not legal
// in a URL path, leaving existing escape sequences intact.
func Escape(path string) string {
	return escape(path, encodePath)
}
