// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"io"
	"time"

	"github.com/gogama/reqchain/cookie"
)

// A Response is the result of a logical request.
//
// Between the transport and output coercion Body is an io.ReadCloser.
// After output coercion it holds exactly one representation chosen by
// the request's As format: a []byte, a string, an io.ReadCloser, or a
// decoded structured value.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// Header holds the response headers with lower-case keys.
	Header Header

	// Body is the response body.
	Body interface{}

	// TraceRedirects lists every URL requested, oldest first, including
	// the original URL.
	TraceRedirects []string

	// Cookies holds the cookies decoded from Set-Cookie headers, keyed
	// by name.
	Cookies map[string]cookie.Cookie

	// OrigContentEncoding is the Content-Encoding the body was
	// decompressed from. It is empty if no decompression occurred.
	OrigContentEncoding string

	// Links holds the parsed Link header, keyed by rel.
	Links map[string]Link

	// RequestTime is the time taken by the whole logical request,
	// excluding reading a streamed body.
	RequestTime time.Duration

	// Request is the request, as sent to the transport, which produced
	// this response.
	Request *Request
}

// A Link is one entry of a Link response header.
type Link struct {
	URL    string
	Params map[string]string
}

// Close closes Body if it is an io.Closer. It is safe to call on a nil
// Response and safe to call more than once if Body's Close is.
func (r *Response) Close() error {
	if r == nil {
		return nil
	}
	if c, ok := r.Body.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Bytes returns Body if it is a []byte or string.
func (r *Response) Bytes() ([]byte, bool) {
	switch b := r.Body.(type) {
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	default:
		return nil, false
	}
}

// Clone returns a shallow copy of r with its own Header, so middleware
// can modify the copy without affecting r.
func (r *Response) Clone() *Response {
	r2 := new(Response)
	*r2 = *r
	r2.Header = r.Header.Clone()
	return r2
}
