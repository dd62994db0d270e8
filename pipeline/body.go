// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"bytes"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/gogama/reqchain/codec"
	"github.com/gogama/reqchain/coerce"
	"github.com/gogama/reqchain/edn"
	"github.com/gogama/reqchain/request"
)

var shortTypes = map[string]string{
	"json":                  "application/json",
	"edn":                   "application/edn",
	"clojure":               "application/edn",
	"yaml":                  "application/yaml",
	"text":                  "text/plain",
	"html":                  "text/html",
	"xml":                   "application/xml",
	"form":                  "application/x-www-form-urlencoded",
	"x-www-form-urlencoded": "application/x-www-form-urlencoded",
	"byte-array":            "application/octet-stream",
}

// ExpandType expands the short content type names json, edn, clojure,
// yaml, text, html, xml, form and byte-array to full media types. Any
// other value is returned as it is.
func ExpandType(t string) string {
	if full, ok := shortTypes[strings.ToLower(strings.TrimPrefix(t, ":"))]; ok {
		return full
	}
	return t
}

// WrapAccept sets the Accept header from Request.Accept.
func WrapAccept(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		if r.Accept == "" {
			return next(r)
		}
		r = clone(r)
		r.Header.Set("accept", ExpandType(r.Accept))
		return next(r)
	}
}

// WrapAcceptEncoding sets the Accept-Encoding header from
// Request.AcceptEncoding.
func WrapAcceptEncoding(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		if len(r.AcceptEncoding) == 0 {
			return next(r)
		}
		r = clone(r)
		r.Header.Set("accept-encoding", strings.Join(r.AcceptEncoding, ", "))
		return next(r)
	}
}

// WrapContentType sets the Content-Type header from Request.ContentType
// and Request.CharacterEncoding.
func WrapContentType(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		if r.ContentType == "" {
			return next(r)
		}
		r = clone(r)
		ct := ExpandType(r.ContentType)
		if r.CharacterEncoding != "" {
			ct += "; charset=" + r.CharacterEncoding
		}
		r.Header.Set("content-type", ct)
		return next(r)
	}
}

func requestMediaType(r *request.Request) string {
	ct := r.Header.Get("content-type")
	if ct == "" {
		ct = ExpandType(r.ContentType)
	}
	mt, _ := coerce.MediaType(ct)
	return mt
}

func isJSONType(mt string) bool {
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func isEDNType(mt string) bool {
	return mt == "application/edn" || mt == "application/clojure"
}

func structuredContentType(r *request.Request) bool {
	mt := requestMediaType(r)
	return isJSONType(mt) || isEDNType(mt)
}

func hasFormBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// WrapFormParams returns middleware which encodes Request.FormParams as
// the body of POST, PUT and PATCH requests which have no Body.
//
// The encoding follows the content type: JSON content types are
// encoded with json, honoring Request.JSONOpts; EDN content types are
// encoded as EDN; anything else is URL-encoded and gets an
// application/x-www-form-urlencoded Content-Type if none is set.
func WrapFormParams(json coerce.JSONCodec) Middleware {
	return func(next Handler) Handler {
		return func(r *request.Request) (*request.Response, error) {
			if r.FormParams == nil || r.Body != nil || !hasFormBody(strings.ToUpper(r.Method)) {
				return next(r)
			}
			r = clone(r)
			mt := requestMediaType(r)
			switch {
			case isJSONType(mt):
				enc := json
				if r.JSONOpts != nil {
					enc = coerce.JSONWithOpts(r.JSONOpts)
				}
				b, err := enc.Marshal(r.FormParams)
				if err != nil {
					return nil, err
				}
				r.Body = b
			case isEDNType(mt):
				b, err := edn.Marshal(r.FormParams)
				if err != nil {
					return nil, err
				}
				r.Body = b
			default:
				v, err := EncodeParams(r.FormParams)
				if err != nil {
					return nil, err
				}
				r.Body = v.Encode()
				if !r.Header.Has("content-type") {
					ct := "application/x-www-form-urlencoded"
					if r.CharacterEncoding != "" {
						ct += "; charset=" + r.CharacterEncoding
					}
					r.Header.Set("content-type", ct)
				}
			}
			r.FormParams = nil
			return next(r)
		}
	}
}

// WrapInputCoercion converts Request.Body into Request.Entity with
// coerce.Entity. A string body is encoded in BodyEncoding, or UTF-8 if
// that is empty.
func WrapInputCoercion(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		if r.Body == nil {
			return next(r)
		}
		e, err := coerce.Entity(r.Body, r.BodyEncoding, r.ContentLength)
		if err != nil {
			return nil, err
		}
		r = r.Clone()
		r.Body = nil
		r.Entity = e
		return next(r)
	}
}

// WrapOutputCoercion returns middleware which decodes the response body
// according to Request.As, using formats.
func WrapOutputCoercion(formats *coerce.Registry) Middleware {
	return func(next Handler) Handler {
		return func(r *request.Request) (*request.Response, error) {
			resp, err := next(r)
			if err != nil || resp == nil {
				return resp, err
			}
			return formats.Output(r, resp)
		}
	}
}

// DefaultAcceptEncoding is the Accept-Encoding header WrapDecompression
// sets when a request has none.
const DefaultAcceptEncoding = "gzip, deflate"

// WrapDecompression asks for compressed responses and decompresses
// them, unless Request.DecompressBody is false.
//
// A decompressed response has its Content-Encoding header removed and
// recorded in Response.OrigContentEncoding. The body stays a stream, so
// a streamed response is decompressed as it is read.
func WrapDecompression(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		if !r.DecompressesBody() {
			return next(r)
		}
		if !r.Header.Has("accept-encoding") {
			r = clone(r)
			r.Header.Set("accept-encoding", DefaultAcceptEncoding)
		}
		resp, err := next(r)
		if err != nil || resp == nil || resp.Body == nil {
			return resp, err
		}
		coding := strings.ToLower(strings.TrimSpace(resp.Header.Get("content-encoding")))
		if coding == "" || coding == "identity" || r.Method == http.MethodHead ||
			resp.Status == http.StatusNoContent || resp.Status == http.StatusNotModified {
			return resp, nil
		}
		rc, ok := readCloser(resp.Body)
		if !ok {
			return resp, nil
		}
		dec, ok, err := codec.NewReader(coding, rc)
		if err != nil {
			_ = rc.Close()
			return nil, err
		}
		if !ok {
			return resp, nil
		}
		out := resp.Clone()
		out.Body = dec
		out.OrigContentEncoding = coding
		out.Header.Del("content-encoding")
		r.Log().WithField("encoding", coding).Debug("decompressing response")
		return out, nil
	}
}

// readCloser returns body as an io.ReadCloser if it is raw bytes or a
// stream.
func readCloser(body interface{}) (io.ReadCloser, bool) {
	switch b := body.(type) {
	case io.ReadCloser:
		return b, true
	case io.Reader:
		return ioutil.NopCloser(b), true
	case []byte:
		return ioutil.NopCloser(bytes.NewReader(b)), true
	case string:
		return ioutil.NopCloser(strings.NewReader(b)), true
	default:
		return nil, false
	}
}
