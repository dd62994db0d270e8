// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"time"

	"github.com/gogama/reqchain/cookie"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// An Option sets a field of a Request.
type Option func(*Request)

// WithContext sets the request context. A nil ctx is ignored.
func WithContext(ctx context.Context) Option {
	return func(r *Request) {
		if ctx != nil {
			r.ctx = ctx
		}
	}
}

// WithHeader adds a header value.
func WithHeader(key, value string) Option {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = make(Header)
		}
		r.Header.Add(key, value)
	}
}

// WithBody sets the request body and its declared length, if known.
// Pass a length of zero when it is unknown.
func WithBody(body interface{}, length int64) Option {
	return func(r *Request) {
		r.Body = body
		r.ContentLength = length
	}
}

// WithBodyEncoding sets the character set a string body is encoded in.
func WithBodyEncoding(charset string) Option {
	return func(r *Request) { r.BodyEncoding = charset }
}

// WithContentType sets the Content-Type and, if charset is not empty,
// its charset parameter.
func WithContentType(contentType, charset string) Option {
	return func(r *Request) {
		r.ContentType = contentType
		r.CharacterEncoding = charset
	}
}

// WithAccept sets the Accept header.
func WithAccept(accept string) Option {
	return func(r *Request) { r.Accept = accept }
}

// WithAcceptEncoding sets the Accept-Encoding header.
func WithAcceptEncoding(codings ...string) Option {
	return func(r *Request) { r.AcceptEncoding = codings }
}

// WithQueryParams sets the query parameters.
func WithQueryParams(params interface{}) Option {
	return func(r *Request) { r.QueryParams = params }
}

// WithFormParams sets the form parameters.
func WithFormParams(params interface{}) Option {
	return func(r *Request) { r.FormParams = params }
}

// WithJSONOpts sets the JSON encoding options for form parameters.
func WithJSONOpts(opts JSONOpts) Option {
	return func(r *Request) { r.JSONOpts = &opts }
}

// WithBasicAuth sets Basic authentication credentials.
func WithBasicAuth(username, password string) Option {
	return func(r *Request) { r.BasicAuth = &Credentials{Username: username, Password: password} }
}

// WithOAuthToken sets a Bearer token.
func WithOAuthToken(token string) Option {
	return func(r *Request) { r.OAuthToken = token }
}

// WithTokenSource sets a source of Bearer tokens.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(r *Request) { r.TokenSource = ts }
}

// WithAs sets the output coercion format.
func WithAs(f Format) Option {
	return func(r *Request) { r.As = f }
}

// WithCoerce sets the coercion policy for structured formats.
func WithCoerce(p CoercePolicy) Option {
	return func(r *Request) { r.Coerce = p }
}

// WithDecompressBody enables or disables response decompression.
func WithDecompressBody(b bool) Option {
	return func(r *Request) { r.DecompressBody = Bool(b) }
}

// WithFollowRedirects enables or disables redirect following.
func WithFollowRedirects(b bool) Option {
	return func(r *Request) { r.FollowRedirects = Bool(b) }
}

// WithMaxRedirects sets the redirect limit.
func WithMaxRedirects(n int) Option {
	return func(r *Request) { r.MaxRedirects = Int(n) }
}

// WithForceRedirects sets ForceRedirects.
func WithForceRedirects() Option {
	return func(r *Request) { r.ForceRedirects = true }
}

// WithThrowExceptions enables or disables errors for exceptional
// statuses.
func WithThrowExceptions(b bool) Option {
	return func(r *Request) { r.ThrowExceptions = Bool(b) }
}

// WithThrowEntireMessage sets ThrowEntireMessage.
func WithThrowEntireMessage() Option {
	return func(r *Request) { r.ThrowEntireMessage = true }
}

// WithIgnoreUnknownHost sets IgnoreUnknownHost.
func WithIgnoreUnknownHost() Option {
	return func(r *Request) { r.IgnoreUnknownHost = true }
}

// WithCookie adds a cookie to send.
func WithCookie(name, value string) Option {
	return func(r *Request) {
		if r.Cookies == nil {
			r.Cookies = make(map[string]cookie.Cookie)
		}
		r.Cookies[name] = cookie.Cookie{Name: name, Value: value, Path: "/"}
	}
}

// WithCookieStore attaches a cookie store.
func WithCookieStore(s cookie.Store) Option {
	return func(r *Request) { r.CookieStore = s }
}

// WithDecodeCookies enables or disables Set-Cookie decoding.
func WithDecodeCookies(b bool) Option {
	return func(r *Request) { r.DecodeCookies = Bool(b) }
}

// WithDecodeBodyHeaders sets DecodeBodyHeaders.
func WithDecodeBodyHeaders() Option {
	return func(r *Request) { r.DecodeBodyHeaders = true }
}

// WithTimeouts sets the connect and socket timeouts.
func WithTimeouts(connect, socket time.Duration) Option {
	return func(r *Request) {
		r.ConnectTimeout = connect
		r.SocketTimeout = socket
	}
}

// WithLogger sets the request logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Request) { r.Logger = l }
}
