// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transport defines the Transport contract at the center of the
middleware pipeline, the errors a transport reports, and HTTP, a
Transport backed by net/http with a bounded connection pool.

A Transport takes a fully-normalized request.Request, whose target
fields, lower-case Header and Entity have been prepared by middleware,
and returns a raw request.Response: the status, lower-case multi-valued
Header, and an open io.ReadCloser Body. Closing the Body releases the
connection back to the pool.

Failures are reported as one of the error types in this package, so
middleware and callers can tell them apart with errors.As:
UnknownHostError, ConnectTimeoutError, SocketTimeoutError,
ConnectionPoolTimeoutError, and TransportError for everything else.
*/
package transport
