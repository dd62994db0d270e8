// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"time"

	"github.com/gogama/reqchain/transient"
	"github.com/google/uuid"
)

// An Execution represents the state of a single logical request
// execution by a client.
//
// An Execution is created when the client starts executing a Request.
// It is updated as each redirect hop and each retry attempt reaches the
// transport, and is passed to event handlers and to retry and timeout
// policies.
//
// Handlers and policies may store values on an Execution with SetValue
// and read them back with Value. They should treat the exported fields
// as read-only.
type Execution struct {
	// ID uniquely identifies the execution, for correlating log lines.
	ID uuid.UUID

	// Request is the request for the current hop, as it will be or was
	// handed to the transport. Before the first hop it is the caller's
	// request.
	Request *Request

	// Start is the start time of the execution. It is set when the
	// execution starts and remains constant thereafter.
	Start time.Time

	// End is the end time of the execution. It is the zero value until
	// the execution ends.
	End time.Time

	// Hop is the zero-based number of the current redirect hop.
	Hop int

	// Attempt is the zero-based number of the current transport
	// attempt within the current hop. It is only ever non-zero when a
	// retry middleware is installed.
	Attempt int

	// AttemptTimeouts counts the transport attempts which ended in a
	// timeout during the execution.
	AttemptTimeouts int

	// Response is the response from the most recent transport attempt
	// or, once the execution has ended, the final response. It is nil
	// if the most recent attempt failed or is underway.
	Response *Response

	// Err is the error from the most recent transport attempt or, once
	// the execution has ended, the error returned to the caller.
	Err error

	data context.Context
}

// NewExecution returns a new, unstarted execution of r.
func NewExecution(r *Request) *Execution {
	return &Execution{ID: uuid.New(), Request: r}
}

// StatusCode returns the status code of Response, or 0 if there is no
// response.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.Status
}

// Header returns the headers of Response, or a nil Header if there is
// no response. A nil Header is safe for read-only use.
func (e *Execution) Header() Header {
	if e.Response == nil {
		return nil
	}

	return e.Response.Header
}

// Duration returns the duration of the execution: zero before it
// starts, the time since Start while it runs, and End minus Start once
// it has ended.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// Timeout indicates whether Err currently contains a non-nil value
// which indicates a timeout.
func (e *Execution) Timeout() bool {
	cat := transient.Categorize(e.Err)
	return cat == transient.Timeout || cat == transient.PoolExhausted
}

// SetValue stores arbitrary data in the execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue: it may not be nil, it must be comparable, and it
// should not be of a built-in type.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
