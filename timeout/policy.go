// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/reqchain/request"
)

// A Policy sets the socket timeout of the next transport attempt.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the socket timeout for the next attempt, given
	// the execution state after the previous one. Zero means no
	// timeout.
	Timeout(e *request.Execution) time.Duration
}

// DefaultPolicy sets a fixed socket timeout of 5 seconds on every
// attempt.
var DefaultPolicy Policy = Fixed(5 * time.Second)

// Infinite sets no socket timeout.
var Infinite Policy = Fixed(0)

// Fixed constructs a policy which sets the socket timeout d on every
// attempt.
func Fixed(d time.Duration) Policy {
	if d < 0 {
		panic("reqchain/timeout: negative timeout")
	}
	return policy([]time.Duration{d})
}

// Adaptive constructs a policy which lengthens the socket timeout after
// an attempt times out.
//
// usual is used for the first attempt and for any attempt after one
// which did not time out. After the first timeout of the execution,
// after[0] is used; after the second, after[1], and so on, with the
// last element of after repeating.
//
// For example, with
//
//	p := Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
//
// a quick first attempt is made, a timed out attempt is retried with
// one second, and a second timeout with ten seconds.
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	p := make([]time.Duration, 1, 1+len(after))
	p[0] = usual
	return policy(append(p, after...))
}

type policy []time.Duration

func (p policy) Timeout(e *request.Execution) time.Duration {
	if !e.Timeout() || e.AttemptTimeouts == 0 {
		return p[0]
	}

	i := e.AttemptTimeouts
	if i > len(p)-1 {
		i = len(p) - 1
	}

	return p[i]
}
