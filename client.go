// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqchain

import (
	"time"

	"github.com/gogama/reqchain/coerce"
	"github.com/gogama/reqchain/config"
	"github.com/gogama/reqchain/cookie"
	"github.com/gogama/reqchain/pipeline"
	"github.com/gogama/reqchain/request"
	"github.com/gogama/reqchain/retry"
	"github.com/gogama/reqchain/timeout"
	"github.com/gogama/reqchain/transport"
	"github.com/sirupsen/logrus"
)

// DefaultTransport is the Transport used by a Client whose Transport is
// nil. It sends requests over net/http with the default pool bounds and
// no timeouts beyond those set on each request.
var DefaultTransport transport.Transport = transport.NewHTTP(transport.Options{})

var emptyHandlers = HandlerGroup{}

// A Client runs requests through a middleware pipeline around a
// transport. Its zero value is a valid configuration.
//
// The zero value client uses DefaultTransport, the default pipeline
// (pipeline.Default), the default output formats, and no event
// handlers, cookie store, settings or logger.
//
// Client's Transport typically has an internal state (pooled
// connections) so Client instances should be reused instead of created
// as needed. Client is safe for concurrent use by multiple goroutines
// as long as its fields are not modified while it is in use.
//
// On top of the pipeline, Client adds the following features:
//
// • Client fills in request fields the caller left unset from Settings,
// CookieStore and Logger, so that one Client carries a session's
// defaults;
//
// • Client tracks each execution in a request.Execution, which retry
// and timeout policies and event handlers can inspect;
//
// • Client invokes user-provided handler functions at designated
// plug-in points, allowing exchanges with the transport to be observed
// and adjusted from outside; and
//
// • Client implements the reqchain.Executor interface.
type Client struct {
	// Transport performs the exchange for each fully shaped request.
	//
	// If Transport is nil, DefaultTransport is used.
	Transport transport.Transport
	// Pipeline lists the middleware wrapped around the transport.
	//
	// If Pipeline is nil, pipeline.Default is used.
	Pipeline *pipeline.Pipeline
	// Formats decodes response bodies for output coercion.
	//
	// If Formats is nil, a registry using coerce.DefaultJSON is used.
	Formats *coerce.Registry
	// RetryPolicy decides when to retry and how long to wait between
	// attempts. It only has an effect if Pipeline contains
	// pipeline.Retry.
	//
	// If RetryPolicy is nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy sets the socket timeout of each attempt made by
	// the retry middleware. It only has an effect if Pipeline contains
	// pipeline.Retry.
	//
	// If TimeoutPolicy is nil, each request's own socket timeout is
	// used for every attempt.
	TimeoutPolicy timeout.Policy
	// CookieStore is used by requests which do not set their own.
	CookieStore cookie.Store
	// Settings fill in request flags and timeouts which the caller
	// left unset.
	Settings *config.Settings
	// Logger is used by requests which do not set their own. The
	// execution ID is added to every entry.
	Logger logrus.FieldLogger
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during a request execution.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
}

// Do runs r through the client's pipeline and returns the final
// response.
//
// The caller's Request is not modified. Do works on a copy to which it
// applies the client's defaults, and records the execution on it, so
// r.Execution() remains nil.
//
// Errors are returned exactly as the pipeline produced them: transport
// errors such as *transport.UnknownHostError, *uri.MalformedURLError,
// *pipeline.TooManyRedirectsError, *pipeline.HTTPStatusError and so on.
// Use errors.As to inspect them.
//
// A nil Response and nil error are returned when the host is unknown
// and the request sets IgnoreUnknownHost.
//
// For simple use cases the Get, Post and other verb methods may prove
// easier to use than Do.
func (c *Client) Do(r *request.Request) (*request.Response, error) {
	if r == nil {
		return nil, &InvalidArgumentError{Name: "request", Reason: "nil"}
	}

	handlers := c.Handlers
	if handlers == nil {
		handlers = &emptyHandlers
	}

	h, err := c.pipeline().Build(&pipeline.Env{
		Formats:       c.Formats,
		RetryPolicy:   c.RetryPolicy,
		TimeoutPolicy: c.TimeoutPolicy,
	}, attempt(c.transport(), handlers))
	if err != nil {
		return nil, err
	}

	r = r.Clone()
	e := request.NewExecution(r)
	r.SetExecution(e)
	if c.Settings != nil {
		c.Settings.Apply(r)
	}
	if r.CookieStore == nil {
		r.CookieStore = c.CookieStore
	}
	if r.Logger == nil {
		r.Logger = c.Logger
	}
	log := r.Log().WithFields(logrus.Fields{
		"execution": e.ID.String(),
		"method":    r.Method,
		"url":       r.Location(),
	})
	r.Logger = log

	handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()
	e.Response, e.Err = h(e.Request)
	e.End = time.Now()
	log.WithFields(logrus.Fields{
		"status":   e.StatusCode(),
		"duration": e.Duration(),
	}).Debug("execution ended")
	handlers.run(AfterExecutionEnd, e)
	return e.Response, e.Err
}

// attempt returns the innermost handler, which fires the attempt events
// around each exchange with t.
func attempt(t transport.Transport, handlers *HandlerGroup) pipeline.Handler {
	return func(r *request.Request) (*request.Response, error) {
		e := r.Execution()
		if e == nil {
			return t.RoundTrip(r)
		}
		e.Request = r
		if r.RedirectsCount > 0 {
			e.Hop = r.RedirectsCount - 1
		}
		e.Response, e.Err = nil, nil
		handlers.run(BeforeAttempt, e)
		e.Response, e.Err = t.RoundTrip(e.Request)
		if e.Timeout() {
			e.AttemptTimeouts++
			handlers.run(AfterAttemptTimeout, e)
		}
		handlers.run(AfterAttempt, e)
		return e.Response, e.Err
	}
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
func (c *Client) Get(url string, opts ...request.Option) (*request.Response, error) {
	return Get(c, url, opts...)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Do.
func (c *Client) Head(url string, opts ...request.Option) (*request.Response, error) {
	return Head(c, url, opts...)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do. Use request.WithBody or request.WithFormParams to
// supply the body.
func (c *Client) Post(url string, opts ...request.Option) (*request.Response, error) {
	return Post(c, url, opts...)
}

// Put issues a PUT to the specified URL.
func (c *Client) Put(url string, opts ...request.Option) (*request.Response, error) {
	return Put(c, url, opts...)
}

// Delete issues a DELETE to the specified URL.
func (c *Client) Delete(url string, opts ...request.Option) (*request.Response, error) {
	return Delete(c, url, opts...)
}

// Options issues an OPTIONS to the specified URL.
func (c *Client) Options(url string, opts ...request.Option) (*request.Response, error) {
	return Options(c, url, opts...)
}

// Patch issues a PATCH to the specified URL.
func (c *Client) Patch(url string, opts ...request.Option) (*request.Response, error) {
	return Patch(c, url, opts...)
}

// Copy issues a WebDAV COPY to the specified URL.
func (c *Client) Copy(url string, opts ...request.Option) (*request.Response, error) {
	return Copy(c, url, opts...)
}

// Move issues a WebDAV MOVE to the specified URL.
func (c *Client) Move(url string, opts ...request.Option) (*request.Response, error) {
	return Move(c, url, opts...)
}

// CloseIdleConnections invokes the same method on the client's
// Transport.
//
// If the Transport has no CloseIdleConnections method, this method does
// nothing.
func (c *Client) CloseIdleConnections() {
	if ic, ok := c.transport().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (c *Client) transport() transport.Transport {
	if c.Transport == nil {
		return DefaultTransport
	}

	return c.Transport
}

func (c *Client) pipeline() pipeline.Pipeline {
	if c.Pipeline == nil {
		return pipeline.Default
	}

	return *c.Pipeline
}
