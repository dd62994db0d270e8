// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogama/reqchain/request"
	"github.com/gogama/reqchain/uri"
	"github.com/sirupsen/logrus"
)

// An HTTPDoer implements a Do method in the same manner as the
// http.Client from the net/http package.
//
// An HTTPDoer given to HTTP must not follow redirects and must not
// transparently decompress responses.
type HTTPDoer interface {
	Do(r *http.Request) (*http.Response, error)
}

// Options configure an HTTP transport.
type Options struct {
	// ConnectTimeout bounds dialing a connection. A request's own
	// ConnectTimeout takes precedence. Zero means no limit.
	ConnectTimeout time.Duration
	// SocketTimeout bounds the time between reads, while waiting for
	// the response and while reading the body. A request's own
	// SocketTimeout takes precedence. Zero means no limit.
	SocketTimeout time.Duration
	// PoolTimeout bounds the wait for a pool slot. Zero means the
	// connect timeout applies; if that is also zero the wait is only
	// bounded by the request context.
	PoolTimeout time.Duration
	// MaxTotal and MaxPerRoute bound the pool. Zero means the defaults.
	MaxTotal    int
	MaxPerRoute int
	// Doer performs the exchange. If nil, an http.Client built by
	// NewDoer is used.
	Doer HTTPDoer
}

// HTTP is a Transport backed by an HTTPDoer. It is safe for concurrent
// use and should be reused.
type HTTP struct {
	opts Options
	doer HTTPDoer
	pool *Pool
}

// NewHTTP returns an HTTP transport configured by opts.
func NewHTTP(opts Options) *HTTP {
	doer := opts.Doer
	if doer == nil {
		doer = NewDoer(opts)
	}
	return &HTTP{
		opts: opts,
		doer: doer,
		pool: NewPool(opts.MaxTotal, opts.MaxPerRoute),
	}
}

type connectTimeoutKey struct{}

// NewDoer returns an http.Client suitable for HTTP: it does not follow
// redirects, does not decompress, and dials with the connect timeout
// carried by each request.
func NewDoer(opts Options) *http.Client {
	dialer := &net.Dialer{KeepAlive: 30 * time.Second}
	perHost := opts.MaxPerRoute
	if perHost <= 0 {
		perHost = DefaultMaxPerRoute
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if d, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok && d > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, d)
					defer cancel()
					conn, err := dialer.DialContext(ctx, network, addr)
					if err != nil && ctx.Err() == context.DeadlineExceeded {
						return nil, &dialTimeout{err}
					}
					return conn, err
				}
				return dialer.DialContext(ctx, network, addr)
			},
			DisableCompression:  true,
			MaxIdleConnsPerHost: perHost,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type dialTimeout struct {
	err error
}

func (d *dialTimeout) Error() string { return d.err.Error() }

func (d *dialTimeout) Unwrap() error { return d.err }

func (d *dialTimeout) Timeout() bool { return true }

// CloseIdleConnections closes idle connections held by the doer, if it
// supports doing so.
func (t *HTTP) CloseIdleConnections() {
	if ic, ok := t.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

// RoundTrip sends r and returns the raw response. The response Body
// holds a pool slot until it is closed.
func (t *HTTP) RoundTrip(r *request.Request) (*request.Response, error) {
	target := r.Target()
	target.UserInfo = ""
	u := uri.Render(target)
	route := target.Scheme + "://" + target.HostPort()
	log := r.Log().WithFields(logrus.Fields{"method": r.Method, "url": u})

	connectTimeout := pick(r.ConnectTimeout, t.opts.ConnectTimeout)
	socketTimeout := pick(r.SocketTimeout, t.opts.SocketTimeout)
	poolTimeout := pick(t.opts.PoolTimeout, connectTimeout)

	parent := r.Context()
	release, err := t.acquire(parent, route, poolTimeout)
	if err != nil {
		closeEntity(r)
		if parent.Err() != nil {
			return nil, &TransportError{Op: opName(r.Method), URL: u, Err: parent.Err()}
		}
		log.WithField("route", route).Debug("connection pool exhausted")
		return nil, &ConnectionPoolTimeoutError{Route: route, Err: err}
	}

	ctx, cancel := context.WithCancel(parent)
	if connectTimeout > 0 {
		ctx = context.WithValue(ctx, connectTimeoutKey{}, connectTimeout)
	}
	wd := newWatchdog(socketTimeout, cancel)
	fail := func(err error) (*request.Response, error) {
		wd.stop()
		cancel()
		release()
		return nil, t.classify(err, r, u, wd, parent)
	}

	hr, err := newHTTPRequest(ctx, r, u)
	if err != nil {
		closeEntity(r)
		return fail(err)
	}

	log.Debug("sending request")
	resp, err := t.doer.Do(hr)
	if err != nil {
		return fail(err)
	}
	wd.reset()

	h := make(request.Header, len(resp.Header))
	for k, vs := range resp.Header {
		lower := strings.ToLower(k)
		h[lower] = append(h[lower], vs...)
	}
	log.WithField("status", resp.StatusCode).Debug("received response")
	return &request.Response{
		Status: resp.StatusCode,
		Header: h,
		Body: &body{
			rc:      resp.Body,
			wd:      wd,
			cancel:  cancel,
			release: release,
			url:     u,
		},
		Request: r,
	}, nil
}

func (t *HTTP) acquire(parent context.Context, route string, timeout time.Duration) (func(), error) {
	ctx := parent
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}
	return t.pool.Acquire(ctx, route)
}

func (t *HTTP) classify(err error, r *request.Request, u string, wd *watchdog, parent context.Context) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		err = ue.Err
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &UnknownHostError{Host: r.Host, Err: err}
	}
	var dt *dialTimeout
	if errors.As(err, &dt) {
		return &ConnectTimeoutError{URL: u, Err: dt.err}
	}
	if wd.expired() {
		return &SocketTimeoutError{URL: u, Err: err}
	}
	if pErr := parent.Err(); pErr != nil {
		return &TransportError{Op: opName(r.Method), URL: u, Err: pErr}
	}
	return &TransportError{Op: opName(r.Method), URL: u, Err: err}
}

func newHTTPRequest(ctx context.Context, r *request.Request, u string) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	var rc io.ReadCloser
	var length int64
	if r.Entity != nil && r.Entity.Body != nil {
		rc, length = r.Entity.Body, r.Entity.Length
		if length == 0 {
			_ = rc.Close()
			rc = http.NoBody
		}
	}
	var hr *http.Request
	var err error
	if rc != nil {
		hr, err = http.NewRequestWithContext(ctx, method, u, rc)
	} else {
		hr, err = http.NewRequestWithContext(ctx, method, u, nil)
	}
	if err != nil {
		return nil, err
	}
	if rc != nil && rc != http.NoBody {
		hr.ContentLength = length
	}
	for k, vs := range r.Header {
		if strings.EqualFold(k, "host") {
			if len(vs) > 0 {
				hr.Host = vs[0]
			}
			continue
		}
		if strings.EqualFold(k, "content-length") {
			continue
		}
		hr.Header[http.CanonicalHeaderKey(k)] = vs
	}
	return hr, nil
}

func closeEntity(r *request.Request) {
	if r.Entity != nil && r.Entity.Body != nil {
		_ = r.Entity.Body.Close()
	}
}

func pick(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// opName is the method in the capitalization used by net/url errors.
func opName(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}

// A watchdog cancels an exchange when the socket timeout passes without
// a reset. A nil watchdog never fires.
type watchdog struct {
	d     time.Duration
	timer *time.Timer
	fired int32
}

func newWatchdog(d time.Duration, cancel context.CancelFunc) *watchdog {
	if d <= 0 {
		return nil
	}
	w := &watchdog{d: d}
	w.timer = time.AfterFunc(d, func() {
		atomic.StoreInt32(&w.fired, 1)
		cancel()
	})
	return w
}

func (w *watchdog) reset() {
	if w != nil && !w.expired() {
		w.timer.Reset(w.d)
	}
}

func (w *watchdog) stop() {
	if w != nil {
		w.timer.Stop()
	}
}

func (w *watchdog) expired() bool {
	return w != nil && atomic.LoadInt32(&w.fired) == 1
}

// body is a response body holding a pool slot. Closing it releases the
// slot.
type body struct {
	rc      io.ReadCloser
	wd      *watchdog
	cancel  context.CancelFunc
	release func()
	url     string
	once    sync.Once
}

func (b *body) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if err == nil || err == io.EOF {
		if n > 0 {
			b.wd.reset()
		}
		return n, err
	}
	if b.wd.expired() {
		return n, &SocketTimeoutError{URL: b.url, Err: err}
	}
	return n, &TransportError{Op: "read", URL: b.url, Err: err}
}

func (b *body) Close() error {
	var err error
	b.once.Do(func() {
		b.wd.stop()
		err = b.rc.Close()
		b.cancel()
		b.release()
	})
	return err
}

