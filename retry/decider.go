// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"net/http"
	"strings"
	"time"

	"github.com/gogama/reqchain/request"
	"github.com/gogama/reqchain/transient"
)

// A Decider decides if a transport attempt should be retried.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructors Times, StatusCode, Before and Methods,
// and the built-in deciders TransientErr and Idempotent; or implement
// your own. Use DeciderFunc to convert an ordinary function into a
// Decider, and to compose deciders with DeciderFunc.And and
// DeciderFunc.Or.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
type DeciderFunc func(e *request.Execution) bool

// DefaultTimes is the number of times DefaultPolicy will retry.
const DefaultTimes = 3

// DefaultDecider allows up to DefaultTimes retries of idempotent
// requests (Idempotent) which failed with a transient error
// (TransientErr) or received one of the statuses 429 (Too Many
// Requests), 502 (Bad Gateway), 503 (Service Unavailable) or 504
// (Gateway Timeout).
var DefaultDecider = Times(DefaultTimes).
	And(Idempotent).
	And(StatusCode(429, 502, 503, 504).Or(TransientErr))

// TransientErr is a decider that indicates a retry if the error of the
// last attempt is transient according to transient.Categorize.
var TransientErr DeciderFunc = transientErr

// Idempotent is a decider that indicates a retry if the method of the
// request is idempotent: GET, HEAD, OPTIONS, TRACE, PUT or DELETE.
var Idempotent = Methods(
	http.MethodGet,
	http.MethodHead,
	http.MethodOptions,
	http.MethodTrace,
	http.MethodPut,
	http.MethodDelete,
)

// Decide returns true if a retry should be done, and false otherwise,
// after examining the current execution state.
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true. g is not evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or composes two retry deciders into a new decider which returns true
// if either sub-decider returns true. g is not evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// Times constructs a retry decider which allows up to n retries within
// a redirect hop.
func Times(n int) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Attempt < n
	}
}

// Before constructs a retry decider allowing retries until d has
// elapsed since the start of the execution.
func Before(d time.Duration) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Duration() < d
	}
}

// StatusCode constructs a retry decider which returns true if the last
// attempt received a response with one of the statuses ss.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(e *request.Execution) bool {
		for _, s := range ss2 {
			if e.StatusCode() == s {
				return true
			}
		}
		return false
	}
}

// Methods constructs a retry decider which returns true if the request
// method is one of methods. An empty request method means GET.
func Methods(methods ...string) DeciderFunc {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[strings.ToUpper(m)] = true
	}
	return func(e *request.Execution) bool {
		if e.Request == nil {
			return false
		}
		m := strings.ToUpper(e.Request.Method)
		if m == "" {
			m = http.MethodGet
		}
		return set[m]
	}
}

func transientErr(e *request.Execution) bool {
	return transient.Categorize(e.Err) != transient.Not
}
