// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides policies for retrying failed transport
// attempts, used by the retry middleware of package pipeline.
//
// A Policy is a Decider, which decides whether to retry, and a Waiter,
// which says how long to wait first. Both have constructors for common
// cases:
//
//	decider := retry.Times(3).
//		And(retry.Idempotent).
//		And(retry.StatusCode(500).Or(retry.TransientErr))
//	waiter := retry.NewRetryAfterWaiter(retry.NewExpWaiter(100*time.Millisecond, 2*time.Second, nil), 10*time.Second)
//	policy := retry.NewPolicy(decider, waiter)
package retry
