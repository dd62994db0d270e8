// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"

	"github.com/gogama/reqchain/coerce"
	"github.com/gogama/reqchain/request"
	"github.com/gogama/reqchain/retry"
	"github.com/gogama/reqchain/timeout"
	"github.com/gogama/reqchain/transport"
)

// A Handler executes a request and returns its response.
type Handler func(r *request.Request) (*request.Response, error)

// A Middleware wraps a Handler to produce a new Handler.
type Middleware func(next Handler) Handler

// FromTransport adapts t to a Handler.
func FromTransport(t transport.Transport) Handler {
	return t.RoundTrip
}

// Chain composes ms around h. The result is ms[0](ms[1](...ms[n-1](h))),
// so ms[0] sees the request first and the response last.
func Chain(h Handler, ms ...Middleware) Handler {
	for i := len(ms) - 1; i >= 0; i-- {
		h = ms[i](h)
	}
	return h
}

// An ID names a middleware within a Pipeline.
type ID string

// Built-in middleware IDs.
const (
	UnknownHost             ID = "unknown-host"
	RequestTiming           ID = "request-timing"
	HeaderMap               ID = "header-map"
	Method                  ID = "method"
	Redirects               ID = "redirects"
	URL                     ID = "url"
	NestedParams            ID = "nested-params"
	UserInfo                ID = "user-info"
	BasicAuth               ID = "basic-auth"
	OAuth                   ID = "oauth"
	QueryParams             ID = "query-params"
	Links                   ID = "links"
	Exceptions              ID = "exceptions"
	OutputCoercion          ID = "output-coercion"
	AdditionalHeaderParsing ID = "additional-header-parsing"
	Decompression           ID = "decompression"
	Cookies                 ID = "cookies"
	Accept                  ID = "accept"
	AcceptEncoding          ID = "accept-encoding"
	ContentType             ID = "content-type"
	FormParams              ID = "form-params"
	InputCoercion           ID = "input-coercion"

	// Retry is not part of Default. Insert it before InputCoercion to
	// retry transport attempts within each redirect hop.
	Retry ID = "retry"
)

// DefaultOrder lists the IDs of Default, outermost first.
var DefaultOrder = []ID{
	UnknownHost,
	RequestTiming,
	HeaderMap,
	Method,
	Redirects,
	URL,
	NestedParams,
	UserInfo,
	BasicAuth,
	OAuth,
	QueryParams,
	Links,
	Exceptions,
	OutputCoercion,
	AdditionalHeaderParsing,
	Decompression,
	Cookies,
	Accept,
	AcceptEncoding,
	ContentType,
	FormParams,
	InputCoercion,
}

// Default is the standard pipeline.
var Default = New(DefaultOrder...)

// A Pipeline is an ordered list of middleware IDs, outermost first,
// together with any custom middleware defined on it. Pipelines are
// immutable: every method returns a new Pipeline.
type Pipeline struct {
	ids    []ID
	custom map[ID]Middleware
}

// New returns a Pipeline of the given IDs.
func New(ids ...ID) Pipeline {
	return Pipeline{ids: append([]ID(nil), ids...)}
}

// IDs returns the IDs of p, outermost first.
func (p Pipeline) IDs() []ID {
	return append([]ID(nil), p.ids...)
}

// Has reports whether p contains id.
func (p Pipeline) Has(id ID) bool {
	return p.index(id) >= 0
}

func (p Pipeline) index(id ID) int {
	for i := range p.ids {
		if p.ids[i] == id {
			return i
		}
	}
	return -1
}

// Without returns p with every occurrence of ids removed.
func (p Pipeline) Without(ids ...ID) Pipeline {
	drop := make(map[ID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	q := p.copy()
	q.ids = q.ids[:0]
	for _, id := range p.ids {
		if !drop[id] {
			q.ids = append(q.ids, id)
		}
	}
	return q
}

// InsertBefore returns p with id inserted immediately outside at. If at
// is not in p, id is appended as the innermost middleware.
func (p Pipeline) InsertBefore(at, id ID) Pipeline {
	q := p.copy()
	i := p.index(at)
	if i < 0 {
		q.ids = append(q.ids, id)
		return q
	}
	q.ids = append(q.ids[:i], append([]ID{id}, p.ids[i:]...)...)
	return q
}

// Append returns p with ids added as the innermost middleware.
func (p Pipeline) Append(ids ...ID) Pipeline {
	q := p.copy()
	q.ids = append(q.ids, ids...)
	return q
}

// Define returns p with m bound to id. A definition takes precedence
// over the built-in middleware of the same ID. Define does not add id
// to the order; use InsertBefore or Append for that.
func (p Pipeline) Define(id ID, m Middleware) Pipeline {
	if m == nil {
		panic("reqchain/pipeline: nil middleware")
	}
	q := p.copy()
	q.custom = make(map[ID]Middleware, len(p.custom)+1)
	for k, v := range p.custom {
		q.custom[k] = v
	}
	q.custom[id] = m
	return q
}

func (p Pipeline) copy() Pipeline {
	return Pipeline{
		ids:    append(make([]ID, 0, len(p.ids)+1), p.ids...),
		custom: p.custom,
	}
}

// An Env supplies the collaborators of the built-in middleware. The
// zero value is ready to use.
type Env struct {
	// Formats decodes response bodies. If nil, a registry built with
	// coerce.DefaultJSON is used.
	Formats *coerce.Registry
	// RetryPolicy is used by Retry. If nil, retry.DefaultPolicy is
	// used.
	RetryPolicy retry.Policy
	// TimeoutPolicy sets the socket timeout of each attempt made by
	// Retry. If nil, the request socket timeout is left alone.
	TimeoutPolicy timeout.Policy
}

var defaultFormats = coerce.NewRegistry(coerce.DefaultJSON)

func (env *Env) formats() *coerce.Registry {
	if env == nil || env.Formats == nil {
		return defaultFormats
	}
	return env.Formats
}

func (env *Env) retryPolicy() retry.Policy {
	if env == nil || env.RetryPolicy == nil {
		return retry.DefaultPolicy
	}
	return env.RetryPolicy
}

func (env *Env) timeoutPolicy() timeout.Policy {
	if env == nil {
		return nil
	}
	return env.TimeoutPolicy
}

// UnknownIDError is returned by Build when a Pipeline contains an ID
// which is neither built in nor defined.
type UnknownIDError struct {
	ID ID
}

func (err *UnknownIDError) Error() string {
	return fmt.Sprintf("reqchain/pipeline: unknown middleware %q", string(err.ID))
}

// Middleware returns the middleware bound to id in p under env.
func (p Pipeline) Middleware(env *Env, id ID) (Middleware, error) {
	if m, ok := p.custom[id]; ok {
		return m, nil
	}
	switch id {
	case UnknownHost:
		return WrapUnknownHost, nil
	case RequestTiming:
		return WrapRequestTiming, nil
	case HeaderMap:
		return WrapHeaderMap, nil
	case Method:
		return WrapMethod, nil
	case Redirects:
		return WrapRedirects, nil
	case URL:
		return WrapURL, nil
	case NestedParams:
		return WrapNestedParams, nil
	case UserInfo:
		return WrapUserInfo, nil
	case BasicAuth:
		return WrapBasicAuth, nil
	case OAuth:
		return WrapOAuth, nil
	case QueryParams:
		return WrapQueryParams, nil
	case Links:
		return WrapLinks, nil
	case Exceptions:
		return WrapExceptions, nil
	case OutputCoercion:
		return WrapOutputCoercion(env.formats()), nil
	case AdditionalHeaderParsing:
		return WrapAdditionalHeaderParsing, nil
	case Decompression:
		return WrapDecompression, nil
	case Cookies:
		return WrapCookies, nil
	case Accept:
		return WrapAccept, nil
	case AcceptEncoding:
		return WrapAcceptEncoding, nil
	case ContentType:
		return WrapContentType, nil
	case FormParams:
		return WrapFormParams(env.formats().JSON()), nil
	case InputCoercion:
		return WrapInputCoercion, nil
	case Retry:
		return WrapRetry(env.retryPolicy(), env.timeoutPolicy()), nil
	default:
		return nil, &UnknownIDError{ID: id}
	}
}

// Build composes the middleware of p around h.
func (p Pipeline) Build(env *Env, h Handler) (Handler, error) {
	ms := make([]Middleware, len(p.ids))
	for i, id := range p.ids {
		m, err := p.Middleware(env, id)
		if err != nil {
			return nil, err
		}
		ms[i] = m
	}
	return Chain(h, ms...), nil
}

// Then composes the middleware of p, with a zero Env, around the
// transport t. It panics if p contains an unknown ID.
func (p Pipeline) Then(t transport.Transport) Handler {
	h, err := p.Build(nil, FromTransport(t))
	if err != nil {
		panic(err)
	}
	return h
}
