// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"syscall"
)

// A Category is the transience category of an error, as reported by
// Categorize. Every category except Not is transient.
type Category int

const (
	// Not indicates a nil error or an error a retry is very unlikely to
	// fix, such as an unknown host or a malformed URL.
	Not Category = iota
	// Timeout indicates a client-side connect or socket timeout.
	//
	// Categorize returns Timeout if the error, or any error it wraps,
	// has a Timeout method reporting true, unless it is PoolExhausted.
	Timeout
	// ConnRefused indicates the remote host refused the connection
	// (ECONNREFUSED). The service may be starting or restarting.
	ConnRefused
	// ConnReset indicates the remote host reset an established
	// connection (ECONNRESET), as happens when a server or load
	// balancer drops in-flight requests during a deployment.
	ConnReset
	// PoolExhausted indicates no pooled connection became available
	// within the checkout timeout. The pool drains as in-flight
	// requests complete, so a later attempt may succeed.
	//
	// Categorize returns PoolExhausted if the error, or any error it
	// wraps, has a PoolExhausted method reporting true.
	PoolExhausted
)

var names = [...]string{"Not", "Timeout", "ConnRefused", "ConnReset", "PoolExhausted"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(names) {
		return "Category(?)"
	}
	return names[c]
}

// Categorize returns the transience category of err, looking through
// wrapped errors. A nil error is Not. Temporary methods are ignored, as
// their meaning is not well defined.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var pe poolExhausted
	if errors.As(err, &pe) && pe.PoolExhausted() {
		return PoolExhausted
	}

	var te hasTimeout
	if errors.As(err, &te) && te.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET:
			return ConnReset
		case syscall.ECONNREFUSED:
			return ConnRefused
		}
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}

type poolExhausted interface {
	PoolExhausted() bool
}
