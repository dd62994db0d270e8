// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package coerce

import (
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"net/url"
	"strings"
	"sync"

	"github.com/gogama/reqchain/codec"
	"github.com/gogama/reqchain/edn"
	"github.com/gogama/reqchain/request"
	"gopkg.in/yaml.v3"
)

// An Input is what a Decoder is given besides the body bytes.
type Input struct {
	// Format is the format being decoded. For Auto it is the format
	// chosen from the Content-Type.
	Format request.Format
	// Status and Header are from the response.
	Status int
	Header request.Header
	// Charset is the character set of the body: the charset parameter
	// of the Content-Type, or the request's CharacterEncoding, or empty
	// for UTF-8.
	Charset string
	// JSON is the registry's JSON codec.
	JSON JSONCodec
}

// A Decoder turns response body bytes into a value.
type Decoder func(in *Input, body []byte) (interface{}, error)

// A Registry maps formats to decoders. The zero value is not usable;
// create one with NewRegistry. A Registry is safe for concurrent use.
type Registry struct {
	json       JSONCodec
	mu         sync.RWMutex
	decoders   map[request.Format]Decoder
	structured map[request.Format]bool
}

// NewRegistry returns a Registry holding the built-in formats, using
// json to decode the JSON formats. A nil json means DefaultJSON.
func NewRegistry(json JSONCodec) *Registry {
	if json == nil {
		json = DefaultJSON
	}
	r := &Registry{
		json:       json,
		decoders:   make(map[request.Format]Decoder),
		structured: make(map[request.Format]bool),
	}
	for _, f := range []request.Format{request.JSON, request.JSONStrict, request.JSONStringKeys, request.JSONStrictStringKeys} {
		r.register(f, decodeJSON, true)
	}
	r.register(request.EDN, decodeEDN, true)
	r.register(request.Clojure, decodeEDN, true)
	r.register(request.YAML, decodeYAML, true)
	r.register(formFormat, decodeForm, true)
	return r
}

const formFormat request.Format = "x-www-form-urlencoded"

// JSON returns the registry's JSON codec.
func (r *Registry) JSON() JSONCodec {
	return r.json
}

// Register adds or replaces the decoder for format f. Structured
// formats are subject to the request's CoercePolicy: when the policy
// does not allow decoding for the response status, the body is decoded
// to a string instead.
func (r *Registry) Register(f request.Format, d Decoder, structured bool) {
	r.register(f, d, structured)
}

func (r *Registry) register(f request.Format, d Decoder, structured bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[f] = d
	r.structured[f] = structured
}

// Lookup returns the decoder for f.
func (r *Registry) Lookup(f request.Format) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[f]
	return d, ok
}

func (r *Registry) isStructured(f request.Format) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.structured[f]
}

// Output coerces the body of resp according to req.As and returns a new
// Response; resp is not modified. A body which is an io.Reader is read
// fully and closed, except for the Stream format, which leaves it open.
//
// Decoding failures of structured formats produce a *ParseError. An As
// value which is not a known format is used as a charset name; an
// unsupported charset produces a *codec.EncodingError.
func (r *Registry) Output(req *request.Request, resp *request.Response) (*request.Response, error) {
	if resp == nil || resp.Body == nil || req.As == request.Stream {
		return resp, nil
	}
	b, err := readBody(resp.Body)
	if err != nil {
		return nil, err
	}
	out := resp.Clone()
	out.Body, err = r.Decode(req, resp.Status, resp.Header, b)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Decode converts body bytes according to req.As. It has no side
// effects: the same arguments always produce the same result.
func (r *Registry) Decode(req *request.Request, status int, h request.Header, body []byte) (interface{}, error) {
	in := &Input{
		Format:  req.As,
		Status:  status,
		Header:  h,
		Charset: contentCharset(h, req.CharacterEncoding),
		JSON:    r.json,
	}
	switch in.Format {
	case request.ByteArray:
		return body, nil
	case request.String:
		return codec.DecodeString(body, in.Charset)
	case request.Auto:
		in.Format = autoFormat(h)
		switch in.Format {
		case request.ByteArray:
			return body, nil
		case request.String:
			return codec.DecodeString(body, in.Charset)
		}
	}

	d, ok := r.Lookup(in.Format)
	if !ok {
		// Unknown formats name a charset.
		return codec.DecodeString(body, string(in.Format))
	}
	if r.isStructured(in.Format) {
		if !req.Coerce.Allows(status) {
			return codec.DecodeString(body, in.Charset)
		}
		if len(body) == 0 {
			return nil, nil
		}
	}
	return d(in, body)
}

func readBody(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	case io.ReadCloser:
		defer x.Close()
		return ioutil.ReadAll(x)
	case io.Reader:
		return ioutil.ReadAll(x)
	default:
		return nil, &UnsupportedBodyTypeError{Type: fmt.Sprintf("response %T", body)}
	}
}

// MediaType returns the lower-cased media type of a Content-Type header
// value and its charset parameter, if any.
func MediaType(contentType string) (mediaType, charset string) {
	if contentType == "" {
		return "", ""
	}
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
		return mt, ""
	}
	return mt, params["charset"]
}

func contentCharset(h request.Header, fallback string) string {
	if _, cs := MediaType(h.Get("content-type")); cs != "" {
		return cs
	}
	return fallback
}

func autoFormat(h request.Header) request.Format {
	mt, _ := MediaType(h.Get("content-type"))
	switch {
	case mt == "":
		return request.ByteArray
	case mt == "application/json" || strings.HasSuffix(mt, "+json"):
		return request.JSON
	case mt == "application/edn" || mt == "application/clojure" || mt == "application/x-clojure":
		return request.EDN
	case mt == "application/yaml" || mt == "application/x-yaml" || mt == "text/yaml" ||
		mt == "text/x-yaml" || strings.HasSuffix(mt, "+yaml"):
		return request.YAML
	case mt == "application/x-www-form-urlencoded":
		return formFormat
	case strings.HasPrefix(mt, "text/"),
		mt == "application/xml" || strings.HasSuffix(mt, "+xml"),
		mt == "application/javascript":
		return request.String
	default:
		return request.ByteArray
	}
}

func decodeJSON(in *Input, body []byte) (interface{}, error) {
	data, err := utf8Body(in, body)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if in.Format == request.JSONStrict || in.Format == request.JSONStrictStringKeys {
		err = in.JSON.Unmarshal(data, &v)
	} else {
		err = in.JSON.DecodeFirst(data, &v)
	}
	if err != nil {
		return nil, &ParseError{Format: in.Format, Err: err}
	}
	if in.Format.StringKeys() {
		return v, nil
	}
	return Keywordize(v), nil
}

func decodeEDN(in *Input, body []byte) (interface{}, error) {
	data, err := utf8Body(in, body)
	if err != nil {
		return nil, err
	}
	v, err := edn.Read(data)
	if err != nil {
		return nil, &ParseError{Format: in.Format, Err: err}
	}
	return v, nil
}

func decodeYAML(in *Input, body []byte) (interface{}, error) {
	data, err := utf8Body(in, body)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if err = yaml.Unmarshal(data, &v); err != nil {
		return nil, &ParseError{Format: in.Format, Err: err}
	}
	return v, nil
}

func decodeForm(in *Input, body []byte) (interface{}, error) {
	data, err := utf8Body(in, body)
	if err != nil {
		return nil, err
	}
	v, err := url.ParseQuery(string(data))
	if err != nil {
		return nil, &ParseError{Format: in.Format, Err: err}
	}
	return v, nil
}

func utf8Body(in *Input, body []byte) ([]byte, error) {
	if in.Charset == "" || strings.EqualFold(in.Charset, codec.DefaultCharset) {
		return body, nil
	}
	s, err := codec.DecodeString(body, in.Charset)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
