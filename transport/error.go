// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

// UnknownHostError is returned when the request host cannot be
// resolved.
type UnknownHostError struct {
	Host string
	Err  error
}

func (err *UnknownHostError) Error() string {
	return "reqchain/transport: unknown host " + err.Host + ": " + err.Err.Error()
}

func (err *UnknownHostError) Unwrap() error {
	return err.Err
}

// ConnectTimeoutError is returned when a connection could not be
// established within the connect timeout.
type ConnectTimeoutError struct {
	URL string
	Err error
}

func (err *ConnectTimeoutError) Error() string {
	return "reqchain/transport: connect timeout: " + err.URL + ": " + err.Err.Error()
}

func (err *ConnectTimeoutError) Unwrap() error {
	return err.Err
}

// Timeout always returns true.
func (err *ConnectTimeoutError) Timeout() bool {
	return true
}

// SocketTimeoutError is returned when no data arrived from the server
// for longer than the socket timeout, whether while waiting for the
// response headers or while reading the body.
type SocketTimeoutError struct {
	URL string
	Err error
}

func (err *SocketTimeoutError) Error() string {
	return "reqchain/transport: socket timeout: " + err.URL + ": " + err.Err.Error()
}

func (err *SocketTimeoutError) Unwrap() error {
	return err.Err
}

// Timeout always returns true.
func (err *SocketTimeoutError) Timeout() bool {
	return true
}

// ConnectionPoolTimeoutError is returned when no pooled connection
// became available within the pool timeout.
type ConnectionPoolTimeoutError struct {
	Route string
	Err   error
}

func (err *ConnectionPoolTimeoutError) Error() string {
	return "reqchain/transport: timeout waiting for connection from pool for " + err.Route
}

func (err *ConnectionPoolTimeoutError) Unwrap() error {
	return err.Err
}

// Timeout always returns true.
func (err *ConnectionPoolTimeoutError) Timeout() bool {
	return true
}

// PoolExhausted always returns true.
func (err *ConnectionPoolTimeoutError) PoolExhausted() bool {
	return true
}

// TransportError is returned for any other failure to exchange a
// request and response, including cancellation of the request context.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (err *TransportError) Error() string {
	return "reqchain/transport: " + err.Op + " " + err.URL + ": " + err.Err.Error()
}

func (err *TransportError) Unwrap() error {
	return err.Err
}
