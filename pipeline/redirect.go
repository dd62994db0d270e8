// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gogama/reqchain/request"
	"github.com/gogama/reqchain/uri"
	"github.com/sirupsen/logrus"
)

// TooManyRedirectsError is returned when a request which throws
// exceptions receives a redirect after reaching its redirect limit.
// Count is the number of the hop which received the redirect, one more
// than the limit.
type TooManyRedirectsError struct {
	Count int
	// Response is the last redirect response. Its body is closed.
	Response *request.Response
}

func (err *TooManyRedirectsError) Error() string {
	return "reqchain/pipeline: too many redirects: " + strconv.Itoa(err.Count)
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect:
		return true
	default:
		return false
	}
}

type step int

const (
	stop step = iota
	follow
	fail
)

// An outcome is the decision taken on one redirect hop: follow the
// next request, stop with the response, or fail with the error.
type outcome struct {
	step step
	next *request.Request
	resp *request.Response
	err  error
}

// WrapRedirects follows 301, 302, 303 and 307 redirects.
//
// Each hop runs the whole inner pipeline and is numbered in
// Request.RedirectsCount, starting at 1. Every URL requested is appended
// to Request.TraceRedirects and the final response carries the trace.
//
// A redirect received on a hop numbered above the limit stops the
// chain: with ThrowExceptions the result is a *TooManyRedirectsError,
// otherwise the redirect response itself. A redirect without a
// Location header is returned as it is.
//
// 303 is followed with GET. 301 and 302 are followed with the same
// method for GET and HEAD; other methods are changed to GET when
// ForceRedirects is set and not followed otherwise. 307 is followed
// with the same method and body, unless ForceRedirects is set and the
// method is not GET or HEAD, in which case it becomes a GET.
//
// Intermediate response bodies are closed. The Authorization header and
// credentials are dropped when a redirect leaves the original host or
// changes scheme.
//
// TraceRedirects records each hop's URL in rendered form, so the first
// entry is the caller's URL normalized the way the URL middleware
// normalizes it.
func WrapRedirects(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		r = clone(r)
		if r.RedirectsCount < 1 {
			r.RedirectsCount = 1
		}
		for {
			r.TraceRedirects = append(r.TraceRedirects, traceLocation(r))
			resp, err := next(r)
			if err != nil {
				return nil, err
			}
			if resp == nil {
				return nil, nil
			}
			resp.TraceRedirects = append([]string(nil), r.TraceRedirects...)

			o := redirect(r, resp)
			switch o.step {
			case follow:
				_ = resp.Close()
				r = o.next
			case fail:
				_ = resp.Close()
				return nil, o.err
			default:
				return o.resp, nil
			}
		}
	}
}

func redirect(r *request.Request, resp *request.Response) outcome {
	if !r.FollowsRedirects() || !isRedirect(resp.Status) {
		return outcome{step: stop, resp: resp}
	}
	log := r.Log().WithFields(logrus.Fields{
		"status": resp.Status,
		"hop":    r.RedirectsCount,
	})
	if r.RedirectsCount > r.RedirectLimit() {
		if r.ThrowsExceptions() {
			return outcome{step: fail, err: &TooManyRedirectsError{Count: r.RedirectsCount, Response: resp}}
		}
		log.Debug("redirect limit reached")
		return outcome{step: stop, resp: resp}
	}
	location := resp.Header.Get("location")
	if location == "" {
		log.Debug("redirect without location")
		return outcome{step: stop, resp: resp}
	}

	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}
	getOrHead := method == http.MethodGet || method == http.MethodHead
	var keepBody bool
	switch resp.Status {
	case http.StatusSeeOther:
		method = http.MethodGet
	case http.StatusTemporaryRedirect:
		if r.ForceRedirects && !getOrHead {
			method = http.MethodGet
		} else {
			keepBody = true
		}
	default:
		if !getOrHead {
			if !r.ForceRedirects {
				log.Debug("not following redirect of " + method)
				return outcome{step: stop, resp: resp}
			}
			method = http.MethodGet
		}
	}

	current, err := currentTarget(r)
	if err != nil {
		return outcome{step: fail, err: err}
	}
	target, err := uri.Resolve(current, location)
	if err != nil {
		return outcome{step: fail, err: err}
	}

	n := clone(r)
	n.Method = method
	n.URL = uri.Render(target)
	n.SetTarget(&uri.Target{})
	n.QueryParams = nil
	n.RedirectsCount = r.RedirectsCount + 1
	if !keepBody || method == http.MethodGet || method == http.MethodHead {
		n.Body = nil
		n.FormParams = nil
		n.Entity = nil
		n.ContentLength = 0
		n.Header.Del("content-length")
	}
	if target.Host != current.Host || target.Scheme != current.Scheme {
		n.Header.Del("authorization")
		n.BasicAuth = nil
		n.OAuthToken = ""
		n.TokenSource = nil
	}
	log.WithField("location", n.URL).Debug("following redirect")
	return outcome{step: follow, next: n}
}

// traceLocation renders the URL r is addressed to. A URL which does not
// parse is recorded as given; the URL middleware reports the error.
func traceLocation(r *request.Request) string {
	if r.URL != "" {
		if t, err := uri.Parse(r.URL); err == nil {
			return uri.Render(t)
		}
	}
	return r.Location()
}

func currentTarget(r *request.Request) (*uri.Target, error) {
	if r.URL != "" {
		return uri.Parse(r.URL)
	}
	return r.Target(), nil
}
