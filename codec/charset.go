// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultCharset is the character set assumed when none is given.
const DefaultCharset = "UTF-8"

// LookupCharset returns the encoding for a character set name, using
// the WHATWG encoding labels (so "latin1", "ISO-8859-1" and
// "windows-1252" are all recognized). An empty name means UTF-8.
func LookupCharset(name string) (encoding.Encoding, error) {
	name = strings.Trim(strings.TrimSpace(name), `"'`)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return unicode.UTF8, nil
	}
	e, err := htmlindex.Get(name)
	if err != nil {
		return nil, &EncodingError{Charset: name, Err: err}
	}
	return e, nil
}

// SupportedCharset reports whether name is a character set LookupCharset
// recognizes.
func SupportedCharset(name string) bool {
	_, err := LookupCharset(name)
	return err == nil
}

// DecodeString converts b, encoded in the named character set, to a Go
// string. Invalid UTF-8 input is passed through with replacement
// characters rather than failing.
func DecodeString(b []byte, charset string) (string, error) {
	e, err := LookupCharset(charset)
	if err != nil {
		return "", err
	}
	if e == unicode.UTF8 {
		if utf8.Valid(b) {
			return string(b), nil
		}
		return strings.ToValidUTF8(string(b), "�"), nil
	}
	out, err := e.NewDecoder().Bytes(b)
	if err != nil {
		return "", &EncodingError{Charset: charset, Err: err}
	}
	return string(out), nil
}

// EncodeString converts s to bytes in the named character set. Runes
// which the character set cannot represent produce an *EncodingError.
func EncodeString(s string, charset string) ([]byte, error) {
	e, err := LookupCharset(charset)
	if err != nil {
		return nil, err
	}
	if e == unicode.UTF8 {
		return []byte(s), nil
	}
	out, err := e.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, &EncodingError{Charset: charset, Err: err}
	}
	return out, nil
}
