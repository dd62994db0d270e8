// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqchain

import (
	"net/http"

	"github.com/gogama/reqchain/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do runs a request through a pipeline and returns the final response
// (and error, if any). Client implements the Doer interface, and any
// other Doer implementation must behave substantially the same as
// Client.Do.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Doer interface {
	Do(r *request.Request) (*request.Response, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
//
// If the underlying implementation does not support this ability,
// CloseIdleConnections does nothing.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups Do, one method per HTTP verb,
// and CloseIdleConnections. Each verb method issues a request with that
// verb to a URL, with options applied, and behaves like the package
// function of the same name.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Executor interface {
	Doer
	Get(url string, opts ...request.Option) (*request.Response, error)
	Head(url string, opts ...request.Option) (*request.Response, error)
	Post(url string, opts ...request.Option) (*request.Response, error)
	Put(url string, opts ...request.Option) (*request.Response, error)
	Delete(url string, opts ...request.Option) (*request.Response, error)
	Options(url string, opts ...request.Option) (*request.Response, error)
	Patch(url string, opts ...request.Option) (*request.Response, error)
	Copy(url string, opts ...request.Option) (*request.Response, error)
	Move(url string, opts ...request.Option) (*request.Response, error)
	IdleCloser
}

// InvalidArgumentError is returned by the verb functions, before any
// request is made, when an argument is missing.
type InvalidArgumentError struct {
	Name   string
	Reason string
}

func (err *InvalidArgumentError) Error() string {
	return "reqchain: invalid " + err.Name + ": " + err.Reason
}

// Send uses the specified Doer to issue a request with the given
// method to url, with opts applied. It returns an *InvalidArgumentError
// without calling d if url is empty.
func Send(d Doer, method, url string, opts ...request.Option) (*request.Response, error) {
	if url == "" {
		return nil, &InvalidArgumentError{Name: "url", Reason: "empty"}
	}
	return d.Do(request.New(method, url, opts...))
}

// Get uses the specified Doer to issue a GET to the specified URL.
func Get(d Doer, url string, opts ...request.Option) (*request.Response, error) {
	return Send(d, http.MethodGet, url, opts...)
}

// Head uses the specified Doer to issue a HEAD to the specified URL.
func Head(d Doer, url string, opts ...request.Option) (*request.Response, error) {
	return Send(d, http.MethodHead, url, opts...)
}

// Post uses the specified Doer to issue a POST to the specified URL.
//
// Supply the body with request.WithBody, or have it encoded from
// parameters with request.WithFormParams.
func Post(d Doer, url string, opts ...request.Option) (*request.Response, error) {
	return Send(d, http.MethodPost, url, opts...)
}

// Put uses the specified Doer to issue a PUT to the specified URL.
func Put(d Doer, url string, opts ...request.Option) (*request.Response, error) {
	return Send(d, http.MethodPut, url, opts...)
}

// Delete uses the specified Doer to issue a DELETE to the specified
// URL.
func Delete(d Doer, url string, opts ...request.Option) (*request.Response, error) {
	return Send(d, http.MethodDelete, url, opts...)
}

// Options uses the specified Doer to issue an OPTIONS to the specified
// URL.
func Options(d Doer, url string, opts ...request.Option) (*request.Response, error) {
	return Send(d, http.MethodOptions, url, opts...)
}

// Patch uses the specified Doer to issue a PATCH to the specified URL.
func Patch(d Doer, url string, opts ...request.Option) (*request.Response, error) {
	return Send(d, http.MethodPatch, url, opts...)
}

// Copy uses the specified Doer to issue a WebDAV COPY to the specified
// URL.
func Copy(d Doer, url string, opts ...request.Option) (*request.Response, error) {
	return Send(d, "COPY", url, opts...)
}

// Move uses the specified Doer to issue a WebDAV MOVE to the specified
// URL.
func Move(d Doer, url string, opts ...request.Option) (*request.Response, error) {
	return Send(d, "MOVE", url, opts...)
}

// Inflate converts any non-nil Doer into an Executor. This may be
// helpful for interop across library boundaries, i.e. if code that only
// has access to a Doer needs to call a function that requires an
// Executor.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("reqchain: nil doer")
	}

	if e, ok := d.(Executor); ok {
		return e
	}

	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(r *request.Request) (*request.Response, error) {
	return i.doer.Do(r)
}

func (i inflated) Get(url string, opts ...request.Option) (*request.Response, error) {
	return Get(i.doer, url, opts...)
}

func (i inflated) Head(url string, opts ...request.Option) (*request.Response, error) {
	return Head(i.doer, url, opts...)
}

func (i inflated) Post(url string, opts ...request.Option) (*request.Response, error) {
	return Post(i.doer, url, opts...)
}

func (i inflated) Put(url string, opts ...request.Option) (*request.Response, error) {
	return Put(i.doer, url, opts...)
}

func (i inflated) Delete(url string, opts ...request.Option) (*request.Response, error) {
	return Delete(i.doer, url, opts...)
}

func (i inflated) Options(url string, opts ...request.Option) (*request.Response, error) {
	return Options(i.doer, url, opts...)
}

func (i inflated) Patch(url string, opts ...request.Option) (*request.Response, error) {
	return Patch(i.doer, url, opts...)
}

func (i inflated) Copy(url string, opts ...request.Option) (*request.Response, error) {
	return Copy(i.doer, url, opts...)
}

func (i inflated) Move(url string, opts ...request.Option) (*request.Response, error) {
	return Move(i.doer, url, opts...)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
