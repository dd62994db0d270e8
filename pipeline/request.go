// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gogama/reqchain/request"
	"github.com/gogama/reqchain/transport"
	"github.com/gogama/reqchain/uri"
	"golang.org/x/net/http/httpguts"
)

// clone returns a copy of r safe to modify, with a non-nil Header.
func clone(r *request.Request) *request.Request {
	r2 := r.Clone()
	if r2.Header == nil {
		r2.Header = make(request.Header)
	}
	return r2
}

// WrapUnknownHost makes requests with IgnoreUnknownHost set return a
// nil Response and nil error when the host cannot be resolved.
func WrapUnknownHost(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		resp, err := next(r)
		var unknown *transport.UnknownHostError
		if err != nil && r.IgnoreUnknownHost && errors.As(err, &unknown) {
			r.Log().WithField("host", unknown.Host).Debug("ignoring unknown host")
			return nil, nil
		}
		return resp, err
	}
}

// WrapRequestTiming records the time taken by the rest of the pipeline
// in Response.RequestTime.
func WrapRequestTiming(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		start := time.Now()
		resp, err := next(r)
		if resp != nil {
			resp.RequestTime = time.Since(start)
		}
		return resp, err
	}
}

// WrapHeaderMap lower-cases the request header names.
func WrapHeaderMap(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		r = clone(r)
		r.Header.Canonicalize()
		return next(r)
	}
}

// InvalidMethodError is returned when a request method is not a valid
// HTTP token.
type InvalidMethodError struct {
	Method string
}

func (err *InvalidMethodError) Error() string {
	return "reqchain/pipeline: invalid method " + err.Method
}

// WrapMethod upper-cases the request method, defaulting it to GET.
func WrapMethod(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		m := strings.ToUpper(r.Method)
		if m == "" {
			m = http.MethodGet
		}
		if !validMethod(m) {
			return nil, &InvalidMethodError{Method: r.Method}
		}
		if m != r.Method {
			r = r.Clone()
			r.Method = m
		}
		return next(r)
	}
}

func validMethod(m string) bool {
	return len(m) > 0 && strings.IndexFunc(m, func(c rune) bool {
		return !httpguts.IsTokenRune(c)
	}) < 0
}

// WrapURL parses Request.URL into the target fields.
//
// A request which already has target fields and no URL is passed on as
// it is. A request with neither produces a *uri.MalformedURLError.
func WrapURL(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		if r.URL == "" {
			if r.Host == "" {
				return nil, &uri.MalformedURLError{URL: "", Reason: "no url"}
			}
			return next(r)
		}
		t, err := uri.Parse(r.URL)
		if err != nil {
			return nil, err
		}
		r = r.Clone()
		r.SetTarget(t)
		r.URL = ""
		return next(r)
	}
}
