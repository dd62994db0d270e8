// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package coerce

import (
	"errors"
	"io"
	"io/ioutil"
	"net/url"
	"strings"
	"testing"

	"github.com/gogama/reqchain/codec"
	"github.com/gogama/reqchain/edn"
	"github.com/gogama/reqchain/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(status int, contentType, body string) *request.Response {
	h := request.Header{}
	if contentType != "" {
		h.Set("content-type", contentType)
	}
	return &request.Response{
		Status: status,
		Header: h,
		Body:   ioutil.NopCloser(strings.NewReader(body)),
	}
}

func TestRegistry_Output(t *testing.T) {
	registry := NewRegistry(nil)

	testCases := []struct {
		name        string
		as          request.Format
		coerce      request.CoercePolicy
		status      int
		contentType string
		body        string
		expected    interface{}
	}{
		{"default string", request.String, "", 200, "", "get", "get"},
		{"byte array", request.ByteArray, "", 200, "", "raw", []byte("raw")},
		{"charset format", request.Format("ISO-8859-1"), "", 200, "", "\xe9t\xe9", "été"},
		{"content-type charset", request.String, "", 200, "text/plain; charset=ISO-8859-1", "\xe9", "é"},
		{
			"json keywordized", request.JSON, "", 200, "application/json",
			`{"a":{"b":[1,{"c":true}]}} trailing`,
			map[edn.Keyword]interface{}{"a": map[edn.Keyword]interface{}{"b": []interface{}{1.0, map[edn.Keyword]interface{}{"c": true}}}},
		},
		{"json string keys", request.JSONStringKeys, "", 200, "", `{"a":null}`, map[string]interface{}{"a": nil}},
		{"json strict", request.JSONStrictStringKeys, "", 201, "", `[1,2]`, []interface{}{1.0, 2.0}},
		{"json on error status is string", request.JSON, "", 500, "", `{"err":1}`, `{"err":1}`},
		{"json always on error status", request.JSONStringKeys, request.CoerceAlways, 500, "", `{"err":1}`, map[string]interface{}{"err": 1.0}},
		{"json exceptional on success is string", request.JSON, request.CoerceExceptional, 200, "", `{}`, `{}`},
		{"json exceptional on error", request.JSONStringKeys, request.CoerceExceptional, 404, "", `{"e":"x"}`, map[string]interface{}{"e": "x"}},
		{"json empty body", request.JSON, "", 204, "", "", nil},
		{"edn", request.EDN, "", 200, "", `{:a [1 2]}`, map[interface{}]interface{}{edn.Keyword("a"): []interface{}{int64(1), int64(2)}}},
		{"clojure alias", request.Clojure, "", 200, "", `:k`, edn.Keyword("k")},
		{"yaml", request.YAML, "", 200, "", "a: 1\nb: [x]\n", map[string]interface{}{"a": 1, "b": []interface{}{"x"}}},
		{"auto json", request.Auto, "", 200, "application/vnd.api+json; charset=utf-8", `{"a":1}`, map[edn.Keyword]interface{}{"a": 1.0}},
		{"auto edn", request.Auto, "", 200, "application/edn", `#{1}`, edn.Set{int64(1): {}}},
		{"auto yaml", request.Auto, "", 200, "application/x-yaml", "- 1\n", []interface{}{1}},
		{"auto form", request.Auto, "", 200, "application/x-www-form-urlencoded", "a=1&a=2&b=x+y", url.Values{"a": {"1", "2"}, "b": {"x y"}}},
		{"auto text", request.Auto, "", 200, "text/html; charset=ISO-8859-1", "\xe9", "é"},
		{"auto xml", request.Auto, "", 200, "application/atom+xml", "<feed/>", "<feed/>"},
		{"auto binary", request.Auto, "", 200, "image/png", "\x89PNG", []byte("\x89PNG")},
		{"auto no content-type", request.Auto, "", 200, "", "?", []byte("?")},
		{"auto malformed content-type", request.Auto, "", 200, "Text/Plain;;;", "t", "t"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req := &request.Request{As: testCase.as, Coerce: testCase.coerce}
			resp := response(testCase.status, testCase.contentType, testCase.body)
			out, err := registry.Output(req, resp)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, out.Body)
			assert.Equal(t, testCase.status, out.Status)
			assert.NotSame(t, resp, out)
		})
	}
}

func TestRegistry_OutputIdempotent(t *testing.T) {
	registry := NewRegistry(nil)
	formats := []request.Format{
		request.String, request.ByteArray, request.JSON, request.JSONStrict,
		request.JSONStringKeys, request.EDN, request.YAML, request.Auto,
	}
	body := []byte(`{"a": [1, 2]}`)
	h := request.Header{"content-type": {"application/json"}}
	for _, f := range formats {
		t.Run(string(f), func(t *testing.T) {
			req := &request.Request{As: f}
			first, err1 := registry.Decode(req, 200, h, body)
			second, err2 := registry.Decode(req, 200, h, body)
			assert.Equal(t, err1, err2)
			assert.Equal(t, first, second)
			assert.Equal(t, []byte(`{"a": [1, 2]}`), body)
		})
	}
}

func TestRegistry_OutputErrors(t *testing.T) {
	registry := NewRegistry(nil)

	testCases := []struct {
		name   string
		as     request.Format
		body   string
		format request.Format
	}{
		{"json", request.JSON, `{"a":`, request.JSON},
		{"json strict trailing", request.JSONStrict, `{} {}`, request.JSONStrict},
		{"edn eval", request.EDN, `#=(System/exit 0)`, request.EDN},
		{"edn unknown tag", request.Clojure, `#object[java.io.File "x"]`, request.Clojure},
		{"yaml", request.YAML, "a: [", request.YAML},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req := &request.Request{As: testCase.as}
			_, err := registry.Output(req, response(200, "", testCase.body))
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "got %v", err)
			assert.Equal(t, testCase.format, parseErr.Format)
		})
	}

	t.Run("edn eval wraps edn.ParseError", func(t *testing.T) {
		req := &request.Request{As: request.EDN}
		_, err := registry.Output(req, response(200, "", `#=(eval)`))
		var ednErr *edn.ParseError
		assert.True(t, errors.As(err, &ednErr))
	})

	t.Run("unsupported charset", func(t *testing.T) {
		req := &request.Request{As: "no-such-charset"}
		_, err := registry.Output(req, response(200, "", "x"))
		var encodingErr *codec.EncodingError
		assert.True(t, errors.As(err, &encodingErr))
	})
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestRegistry_OutputBodies(t *testing.T) {
	registry := NewRegistry(nil)

	t.Run("stream left open", func(t *testing.T) {
		body := &trackingBody{Reader: strings.NewReader("s")}
		resp := &request.Response{Status: 200, Body: body}
		out, err := registry.Output(&request.Request{As: request.Stream}, resp)
		require.NoError(t, err)
		assert.Same(t, resp, out)
		assert.False(t, body.closed)
	})

	t.Run("consumed body closed", func(t *testing.T) {
		body := &trackingBody{Reader: strings.NewReader("s")}
		out, err := registry.Output(&request.Request{}, &request.Response{Status: 200, Body: body})
		require.NoError(t, err)
		assert.Equal(t, "s", out.Body)
		assert.True(t, body.closed)
	})

	t.Run("nil body", func(t *testing.T) {
		resp := &request.Response{Status: 204}
		out, err := registry.Output(&request.Request{As: request.JSON}, resp)
		require.NoError(t, err)
		assert.Same(t, resp, out)
	})

	t.Run("byte body", func(t *testing.T) {
		out, err := registry.Output(&request.Request{}, &request.Response{Status: 200, Body: []byte("b")})
		require.NoError(t, err)
		assert.Equal(t, "b", out.Body)
	})

	t.Run("unsupported body", func(t *testing.T) {
		_, err := registry.Output(&request.Request{}, &request.Response{Status: 200, Body: 7})
		var unsupported *UnsupportedBodyTypeError
		assert.True(t, errors.As(err, &unsupported))
	})
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry(nil)
	upper := func(in *Input, body []byte) (interface{}, error) {
		return strings.ToUpper(string(body)), nil
	}
	registry.Register("upper", upper, false)
	_, ok := registry.Lookup("upper")
	require.True(t, ok)

	out, err := registry.Output(&request.Request{As: "upper"}, response(500, "", "shout"))
	require.NoError(t, err)
	assert.Equal(t, "SHOUT", out.Body)

	registry.Register("upper-structured", upper, true)
	out, err = registry.Output(&request.Request{As: "upper-structured"}, response(500, "", "quiet"))
	require.NoError(t, err)
	assert.Equal(t, "quiet", out.Body)
}

func TestMediaType(t *testing.T) {
	mt, cs := MediaType("Application/JSON; Charset=UTF-16")
	assert.Equal(t, "application/json", mt)
	assert.Equal(t, "UTF-16", cs)
	mt, cs = MediaType("")
	assert.Empty(t, mt)
	assert.Empty(t, cs)
}

func TestJSONWithOpts(t *testing.T) {
	assert.Equal(t, DefaultJSON, JSONWithOpts(nil))
	b, err := JSONWithOpts(&request.JSONOpts{SortMapKeys: true}).Marshal(map[string]int{"b": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, string(b))
	b, err = JSONWithOpts(&request.JSONOpts{Indent: 2}).Marshal([]int{1})
	require.NoError(t, err)
	assert.Equal(t, "[\n  1\n]", string(b))
}
