// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package edn reads and writes extensible data notation, the literal
// data syntax used by the "edn" (also called "clojure") body format.
//
// The reader accepts data only. Forms which would cause a Lisp reader to
// evaluate code or expand macros, such as #=(...), #(...), quote and
// syntax-quote, are rejected with a *ParseError, as are tagged literals
// other than #inst and #uuid.
//
// Values are read into these Go types:
//
//	nil                 nil
//	true, false         bool
//	"text"              string
//	\c                  Char
//	42                  int64 (*big.Int when suffixed N or too large)
//	1.5, 1e3            float64 (*big.Float when suffixed M)
//	1/3                 *big.Rat
//	:kw, :ns/kw         Keyword
//	sym, ns/sym         Symbol
//	(a b)               List
//	[a b]               []interface{}
//	{k v}               map[interface{}]interface{}
//	#{a b}              Set
//	#inst "..."         time.Time
//	#uuid "..."         uuid.UUID
package edn

import (
	"strconv"
)

// A Keyword is an EDN keyword, without its leading colon.
type Keyword string

func (k Keyword) String() string {
	return ":" + string(k)
}

// A Symbol is an EDN symbol.
type Symbol string

// A Char is an EDN character literal.
type Char rune

// A List is an EDN list. Vectors are read as plain slices.
type List []interface{}

// A Set is an EDN set.
type Set map[interface{}]struct{}

// ParseError is returned when input is not well-formed EDN, or contains
// a form the reader refuses to accept.
type ParseError struct {
	Offset int
	Msg    string
}

func (err *ParseError) Error() string {
	return "reqchain/edn: " + err.Msg + " at offset " + strconv.Itoa(err.Offset)
}
