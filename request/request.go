// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gogama/reqchain/cookie"
	"github.com/gogama/reqchain/uri"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	nilCtxMsg = "reqchain/request: nil context"

	// DefaultMaxRedirects is the redirect limit used when a Request
	// does not set MaxRedirects.
	DefaultMaxRedirects = 20
)

// A Request describes a logical HTTP request on its way through the
// middleware pipeline.
//
// Callers normally set Method, URL and the option fields, and leave the
// target fields (Scheme through UserInfo) to be filled in from URL by
// the URL middleware. Middleware may also rewrite fields as the request
// moves inward; each middleware works on its own shallow copy so the
// caller's Request is never modified.
//
// Flag fields which default to true are pointers: nil means the default
// applies. Use Bool and Int to set them inline.
type Request struct {
	// Method specifies the HTTP method. An empty string means GET.
	Method string `mapstructure:"method"`

	// URL is the absolute URL to request. When it is set, the URL
	// middleware parses it into the target fields below and clears it.
	URL string `mapstructure:"url"`

	Scheme      string `mapstructure:"scheme"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Path        string `mapstructure:"path"`
	QueryString string `mapstructure:"query-string"`
	UserInfo    string `mapstructure:"user-info"`

	// Header contains the request header fields. Keys are
	// canonicalized to lower case by the header middleware.
	Header Header `mapstructure:"headers"`

	// Body is the request body. It may be nil, a string, a []byte, an
	// io.Reader, an *os.File, or a coerce.File naming a file to stream.
	Body interface{} `mapstructure:"body"`

	// BodyEncoding is the character set a string Body is encoded in.
	// An empty value means UTF-8.
	BodyEncoding string `mapstructure:"body-encoding"`

	// ContentLength declares the length of an io.Reader Body. Zero
	// means unknown, in which case the body is sent chunked.
	ContentLength int64 `mapstructure:"length"`

	// ContentType sets the Content-Type header. Short names json, edn,
	// yaml, text and form are expanded to full media types.
	ContentType string `mapstructure:"content-type"`

	// CharacterEncoding is appended to Content-Type as a charset
	// parameter, and is the character set used to decode a String
	// formatted response body.
	CharacterEncoding string `mapstructure:"character-encoding"`

	// Accept sets the Accept header, with the same short names as
	// ContentType.
	Accept string `mapstructure:"accept"`

	// AcceptEncoding sets the Accept-Encoding header.
	AcceptEncoding []string `mapstructure:"accept-encoding"`

	// QueryParams are encoded and appended to the query string. They
	// may be a url.Values, a map with string keys, or a struct with
	// "url" field tags. Map values which are themselves maps are
	// flattened to a[b]=c form.
	QueryParams interface{} `mapstructure:"query-params"`

	// FormParams are encoded as the request body when the method is
	// POST, PUT or PATCH and Body is nil. They accept the same types as
	// QueryParams. When ContentType is json they are encoded as JSON
	// using JSONOpts.
	FormParams interface{} `mapstructure:"form-params"`

	// JSONOpts controls JSON encoding of FormParams.
	JSONOpts *JSONOpts `mapstructure:"json-opts"`

	// BasicAuth produces a Basic Authorization header.
	BasicAuth *Credentials `mapstructure:"basic-auth"`

	// OAuthToken produces a Bearer Authorization header.
	OAuthToken string `mapstructure:"oauth-token"`

	// TokenSource, if set and OAuthToken is empty, supplies the token
	// for a Bearer Authorization header.
	TokenSource oauth2.TokenSource `mapstructure:"-"`

	// As selects the output coercion format for the response body.
	As Format `mapstructure:"as"`

	// Coerce decides when a structured As format is decoded.
	Coerce CoercePolicy `mapstructure:"coerce"`

	DecompressBody  *bool `mapstructure:"decompress-body"`
	FollowRedirects *bool `mapstructure:"follow-redirects"`
	MaxRedirects    *int  `mapstructure:"max-redirects"`

	// ForceRedirects follows 301 and 302 redirects of methods other than
	// GET and HEAD, and turns 307 redirects into GET redirects.
	ForceRedirects bool `mapstructure:"force-redirects"`

	ThrowExceptions *bool `mapstructure:"throw-exceptions"`

	// ThrowEntireMessage includes the response body in the message of
	// an *HTTPStatusError.
	ThrowEntireMessage bool `mapstructure:"throw-entire-message?"`

	// IgnoreUnknownHost makes a request to an unresolvable host return
	// a nil Response and nil error.
	IgnoreUnknownHost bool `mapstructure:"ignore-unknown-host?"`

	// Cookies are sent in the Cookie header.
	Cookies map[string]cookie.Cookie `mapstructure:"cookies"`

	// CookieStore, if set, supplies matching cookies for the request and
	// receives the cookies set by the response.
	CookieStore cookie.Store `mapstructure:"-"`

	DecodeCookies *bool `mapstructure:"decode-cookies"`

	// DecodeBodyHeaders parses <meta http-equiv> headers from HTML
	// response bodies into the response Header.
	DecodeBodyHeaders bool `mapstructure:"decode-body-headers"`

	// ConnectTimeout bounds connection establishment, including
	// waiting for a pooled connection. SocketTimeout bounds the time
	// between reads. Zero means the transport default.
	ConnectTimeout time.Duration `mapstructure:"connection-timeout"`
	SocketTimeout  time.Duration `mapstructure:"socket-timeout"`

	// Entity is the transport-ready body produced by input coercion.
	Entity *Entity `mapstructure:"-"`

	// RedirectsCount is the number of the current hop, starting at 1.
	RedirectsCount int `mapstructure:"-"`

	// TraceRedirects lists the URLs requested so far, oldest first.
	TraceRedirects []string `mapstructure:"-"`

	// Logger receives debug logging from the pipeline. Nil means no
	// logging.
	Logger logrus.FieldLogger `mapstructure:"-"`

	ctx       context.Context
	execution *Execution
}

// Credentials are a user name and password for Basic authentication.
type Credentials struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// JSONOpts adjust JSON encoding of form parameters.
type JSONOpts struct {
	EscapeHTML  bool `mapstructure:"escape-html"`
	Indent      int  `mapstructure:"indent"`
	SortMapKeys bool `mapstructure:"sort-map-keys"`
}

// An Entity is a request body ready for the transport.
type Entity struct {
	// Body yields the body bytes. The transport closes it.
	Body io.ReadCloser
	// Length is the number of bytes Body yields, or -1 if unknown, in
	// which case the transport uses chunked transfer encoding.
	Length int64
}

// New returns a Request for method and url with opts applied.
func New(method, url string, opts ...Option) *Request {
	r := &Request{Method: method, URL: url}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewWithContext is like New but sets the request context, which must
// be non-nil.
func NewWithContext(ctx context.Context, method, url string, opts ...Option) (*Request, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	r := New(method, url, opts...)
	r.ctx = ctx
	return r, nil
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to n.
func Int(n int) *int {
	return &n
}

// Context returns the request's context. The returned context is
// always non-nil; it defaults to the background context.
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of r with its context changed to
// ctx, which must be non-nil.
//
// The context controls the whole logical request, including every
// redirect hop and any retries.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	r2 := new(Request)
	*r2 = *r
	r2.ctx = ctx
	return r2
}

// Target returns the request target fields as a uri.Target.
func (r *Request) Target() *uri.Target {
	return &uri.Target{
		Scheme:   r.Scheme,
		UserInfo: r.UserInfo,
		Host:     r.Host,
		Port:     r.Port,
		Path:     r.Path,
		RawQuery: r.QueryString,
	}
}

// SetTarget replaces the request target fields with those of t.
func (r *Request) SetTarget(t *uri.Target) {
	r.Scheme = t.Scheme
	r.UserInfo = t.UserInfo
	r.Host = t.Host
	r.Port = t.Port
	r.Path = t.Path
	r.QueryString = t.RawQuery
}

// Location returns the URL the request is addressed to: URL if it has
// not been parsed yet, otherwise the rendered target fields.
func (r *Request) Location() string {
	if r.URL != "" || r.Host == "" {
		return r.URL
	}
	return uri.Render(r.Target())
}

// Execution returns the execution the request belongs to, or nil if
// the request is not being executed by a client.
func (r *Request) Execution() *Execution {
	return r.execution
}

// SetExecution records the execution the request belongs to.
func (r *Request) SetExecution(e *Execution) {
	r.execution = e
}

// Clone returns a copy of r which middleware can modify without
// affecting r. Header, AcceptEncoding, Cookies and TraceRedirects are
// copied; Body, Entity and the parameter values are shared.
func (r *Request) Clone() *Request {
	r2 := new(Request)
	*r2 = *r
	r2.Header = r.Header.Clone()
	if r.AcceptEncoding != nil {
		r2.AcceptEncoding = append([]string(nil), r.AcceptEncoding...)
	}
	if r.TraceRedirects != nil {
		r2.TraceRedirects = append([]string(nil), r.TraceRedirects...)
	}
	if r.Cookies != nil {
		r2.Cookies = make(map[string]cookie.Cookie, len(r.Cookies))
		for k, v := range r.Cookies {
			r2.Cookies[k] = v
		}
	}
	return r2
}

// Log returns the request logger, or a logger which discards everything
// if none is set.
func (r *Request) Log() logrus.FieldLogger {
	if r.Logger != nil {
		return r.Logger
	}
	return discardLogger
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}()

// FollowsRedirects reports whether redirects are followed. The default
// is true.
func (r *Request) FollowsRedirects() bool {
	return r.FollowRedirects == nil || *r.FollowRedirects
}

// RedirectLimit returns the maximum number of redirects to follow.
func (r *Request) RedirectLimit() int {
	if r.MaxRedirects == nil {
		return DefaultMaxRedirects
	}
	return *r.MaxRedirects
}

// ThrowsExceptions reports whether exceptional statuses and exhausted
// redirect limits produce errors. The default is true.
func (r *Request) ThrowsExceptions() bool {
	return r.ThrowExceptions == nil || *r.ThrowExceptions
}

// DecompressesBody reports whether compressed responses are
// decompressed. The default is true.
func (r *Request) DecompressesBody() bool {
	return r.DecompressBody == nil || *r.DecompressBody
}

// DecodesCookies reports whether Set-Cookie response headers are
// decoded into Response.Cookies. The default is true.
func (r *Request) DecodesCookies() bool {
	return r.DecodeCookies == nil || *r.DecodeCookies
}
