// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import "github.com/gogama/reqchain/request"

// A Transport performs one HTTP exchange for a normalized request.
//
// RoundTrip must not follow redirects, decompress, or decode the body:
// those are middleware concerns. It returns the raw status, a Header
// with lower-case keys, and an io.ReadCloser Body which the caller must
// close. A non-2XX status is not an error.
type Transport interface {
	RoundTrip(r *request.Request) (*request.Response, error)
}

// Func adapts a function to the Transport interface.
type Func func(r *request.Request) (*request.Response, error)

// RoundTrip calls f(r).
func (f Func) RoundTrip(r *request.Request) (*request.Response, error) {
	return f(r)
}

// An IdleCloser can close idle connections it holds.
type IdleCloser interface {
	CloseIdleConnections()
}
