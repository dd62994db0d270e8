// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"time"

	"github.com/gogama/reqchain/request"
	"github.com/gogama/reqchain/retry"
	"github.com/gogama/reqchain/timeout"
	"github.com/sirupsen/logrus"
)

// WrapRetry returns middleware which retries the rest of the pipeline
// as directed by rp. If tp is not nil, it sets the socket timeout of
// each attempt.
//
// Attempts are recorded on the request's Execution, or on a private
// one if the request has none, so that rp and tp can inspect the
// previous attempt. The response of an attempt which is retried is
// closed. Waiting between attempts stops early when the request
// context is done, in which case the context error is returned.
//
// A request body is coerced again for each attempt when WrapRetry is
// placed outside input coercion. A stream body can only be sent once.
func WrapRetry(rp retry.Policy, tp timeout.Policy) Middleware {
	return func(next Handler) Handler {
		return func(r *request.Request) (*request.Response, error) {
			e := r.Execution()
			own := e == nil
			if own {
				e = request.NewExecution(r)
				e.Start = time.Now()
			}
			ctx := r.Context()
			for attempt := 0; ; attempt++ {
				e.Attempt = attempt
				a := r
				if tp != nil {
					a = r.Clone()
					a.SocketTimeout = tp.Timeout(e)
				}
				resp, err := next(a)
				e.Response, e.Err = resp, err
				if own && e.Timeout() {
					e.AttemptTimeouts++
				}
				if ctx.Err() != nil || !rp.Decide(e) {
					return resp, err
				}
				wait := rp.Wait(e)
				r.Log().WithFields(logrus.Fields{
					"attempt": attempt,
					"status":  e.StatusCode(),
					"wait":    wait,
				}).Debug("retrying")
				_ = resp.Close()
				timer := time.NewTimer(wait)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					e.Response, e.Err = nil, ctx.Err()
					return nil, ctx.Err()
				}
			}
		}
	}
}
