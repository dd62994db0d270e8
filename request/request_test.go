// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gogama/reqchain/cookie"
	"github.com/gogama/reqchain/uri"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	h := Header{}
	h.Add("Content-Type", "text/plain")
	h.Add("X-Multi", "1")
	h.Add("x-multi", "2")
	assert.Equal(t, "text/plain", h.Get("content-type"))
	assert.Equal(t, []string{"1", "2"}, h.Values("X-MULTI"))
	assert.True(t, h.Has("X-Multi"))

	h.Set("X-Multi", "3")
	assert.Equal(t, []string{"3"}, h["x-multi"])

	c := h.Clone()
	c.Add("x-multi", "4")
	assert.Equal(t, []string{"3"}, h.Values("x-multi"))

	h.Del("CONTENT-TYPE")
	assert.False(t, h.Has("content-type"))

	var nilHeader Header
	assert.Equal(t, "", nilHeader.Get("a"))
	assert.Nil(t, nilHeader.Values("a"))
	assert.Nil(t, nilHeader.Clone())
}

func TestHeader_Canonicalize(t *testing.T) {
	h := Header{
		"Accept":       {"a"},
		"ACCEPT":       {"b"},
		"accept":       {"c"},
		"Content-Type": {"text/plain"},
	}
	h.Canonicalize()
	assert.Equal(t, Header{
		"accept":       {"c", "b", "a"},
		"content-type": {"text/plain"},
	}, h)
}

func TestNew(t *testing.T) {
	r := New("POST", "http://example.com/x",
		WithHeader("X-Trace", "abc"),
		WithBody(strings.NewReader("hi"), 2),
		WithAs(JSONStringKeys),
		WithMaxRedirects(3),
		WithFollowRedirects(false),
		WithBasicAuth("user", "pass"),
		WithCookie("sid", "1"),
	)
	assert.Equal(t, "POST", r.Method)
	assert.Equal(t, "http://example.com/x", r.URL)
	assert.Equal(t, "abc", r.Header.Get("x-trace"))
	assert.Equal(t, int64(2), r.ContentLength)
	assert.Equal(t, JSONStringKeys, r.As)
	assert.Equal(t, 3, r.RedirectLimit())
	assert.False(t, r.FollowsRedirects())
	assert.Equal(t, &Credentials{Username: "user", Password: "pass"}, r.BasicAuth)
	assert.Equal(t, cookie.Cookie{Name: "sid", Value: "1", Path: "/"}, r.Cookies["sid"])
	assert.Equal(t, context.Background(), r.Context())
}

func TestNewWithContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	r, err := NewWithContext(ctx, "GET", "http://example.com")
	require.NoError(t, err)
	assert.Same(t, ctx, r.Context())

	r, err = NewWithContext(nil, "GET", "http://example.com")
	assert.Nil(t, r)
	assert.EqualError(t, err, nilCtxMsg)
}

func TestRequest_WithContext(t *testing.T) {
	r := New("GET", "http://example.com")
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, 1)
	r2 := r.WithContext(ctx)
	assert.NotSame(t, r, r2)
	assert.Same(t, ctx, r2.Context())
	assert.Equal(t, context.Background(), r.Context())
	assert.PanicsWithValue(t, nilCtxMsg, func() {
		r.WithContext(nil)
	})
}

func TestRequest_Defaults(t *testing.T) {
	r := &Request{}
	assert.True(t, r.FollowsRedirects())
	assert.Equal(t, DefaultMaxRedirects, r.RedirectLimit())
	assert.True(t, r.ThrowsExceptions())
	assert.True(t, r.DecompressesBody())
	assert.True(t, r.DecodesCookies())
	assert.NotNil(t, r.Log())

	r.ThrowExceptions = Bool(false)
	r.DecompressBody = Bool(false)
	r.DecodeCookies = Bool(false)
	r.MaxRedirects = Int(0)
	assert.False(t, r.ThrowsExceptions())
	assert.False(t, r.DecompressesBody())
	assert.False(t, r.DecodesCookies())
	assert.Equal(t, 0, r.RedirectLimit())
}

func TestRequest_Target(t *testing.T) {
	r := New("GET", "http://example.com:8080/a?b=c")
	assert.Equal(t, "http://example.com:8080/a?b=c", r.Location())

	target, err := uri.Parse(r.URL)
	require.NoError(t, err)
	r.URL = ""
	r.SetTarget(target)
	assert.Equal(t, "example.com", r.Host)
	assert.Equal(t, 8080, r.Port)
	assert.Equal(t, "b=c", r.QueryString)
	assert.Equal(t, target, r.Target())
	assert.Equal(t, "http://example.com:8080/a?b=c", r.Location())
}

func TestRequest_Clone(t *testing.T) {
	r := New("GET", "http://example.com", WithHeader("a", "1"), WithCookie("c", "v"))
	r.TraceRedirects = []string{"http://example.com"}
	e := NewExecution(r)
	r.SetExecution(e)

	r2 := r.Clone()
	r2.Header.Add("a", "2")
	r2.TraceRedirects = append(r2.TraceRedirects, "http://other")
	delete(r2.Cookies, "c")

	assert.Equal(t, []string{"1"}, r.Header.Values("a"))
	assert.Len(t, r.TraceRedirects, 1)
	assert.Contains(t, r.Cookies, "c")
	assert.Same(t, e, r2.Execution())
}

type closeRecorder struct {
	closed int
}

func (c *closeRecorder) Read(p []byte) (int, error) { return 0, errors.New("unused") }

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestResponse(t *testing.T) {
	var nilResponse *Response
	assert.NoError(t, nilResponse.Close())

	body := &closeRecorder{}
	r := &Response{Status: 200, Header: Header{"a": {"1"}}, Body: body}
	require.NoError(t, r.Close())
	assert.Equal(t, 1, body.closed)
	_, ok := r.Bytes()
	assert.False(t, ok)

	r.Body = "text"
	b, ok := r.Bytes()
	assert.True(t, ok)
	assert.Equal(t, []byte("text"), b)
	assert.NoError(t, r.Close())

	r2 := r.Clone()
	r2.Header.Set("a", "2")
	assert.Equal(t, "1", r.Header.Get("a"))
}

func TestUnexceptional(t *testing.T) {
	for status := 100; status < 600; status++ {
		expected := (status >= 200 && status <= 207) || (status >= 300 && status <= 303) || status == 307
		assert.Equal(t, expected, Unexceptional(status), "status %d", status)
	}
}

func TestCoercePolicy(t *testing.T) {
	assert.True(t, CoerceUnexceptional.Allows(200))
	assert.False(t, CoerceUnexceptional.Allows(404))
	assert.True(t, CoerceAlways.Allows(500))
	assert.True(t, CoerceExceptional.Allows(500))
	assert.False(t, CoerceExceptional.Allows(207))
}

func TestFormat(t *testing.T) {
	assert.True(t, JSON.IsJSON())
	assert.True(t, JSONStrictStringKeys.IsJSON())
	assert.False(t, EDN.IsJSON())
	assert.True(t, JSONStringKeys.StringKeys())
	assert.False(t, JSONStrict.StringKeys())
}

func TestFromMap(t *testing.T) {
	r, err := FromMap(map[string]interface{}{
		"method":                "post",
		"url":                   "http://example.com/",
		"headers":               map[string]interface{}{"X-One": "1", "X-Many": []string{"a", "b"}},
		"body":                  []byte("payload"),
		"query-params":          map[string]interface{}{"q": "x"},
		"basic-auth":            "user:pa:ss",
		"as":                    "json",
		"coerce":                "always",
		"follow-redirects":      "false",
		"max-redirects":         "5",
		"throw-exceptions":      false,
		"throw-entire-message?": true,
		"connection-timeout":    1500,
		"socket-timeout":        "2s",
		"cookies":               map[string]interface{}{"a": map[string]interface{}{"value": "1"}},
		"unrecognized":          "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "post", r.Method)
	assert.Equal(t, "http://example.com/", r.URL)
	assert.Equal(t, Header{"x-one": {"1"}, "x-many": {"a", "b"}}, r.Header)
	assert.Equal(t, []byte("payload"), r.Body)
	assert.Equal(t, map[string]interface{}{"q": "x"}, r.QueryParams)
	assert.Equal(t, &Credentials{Username: "user", Password: "pa:ss"}, r.BasicAuth)
	assert.Equal(t, JSON, r.As)
	assert.Equal(t, CoerceAlways, r.Coerce)
	assert.False(t, r.FollowsRedirects())
	assert.Equal(t, 5, r.RedirectLimit())
	assert.False(t, r.ThrowsExceptions())
	assert.True(t, r.ThrowEntireMessage)
	assert.Equal(t, 1500*time.Millisecond, r.ConnectTimeout)
	assert.Equal(t, 2*time.Second, r.SocketTimeout)
	assert.Equal(t, "1", r.Cookies["a"].Value)

	t.Run("basic auth list", func(t *testing.T) {
		r, err := FromMap(map[string]interface{}{"basic-auth": []interface{}{"u", "p"}})
		require.NoError(t, err)
		assert.Equal(t, &Credentials{Username: "u", Password: "p"}, r.BasicAuth)
	})

	t.Run("basic auth wrong length", func(t *testing.T) {
		_, err := FromMap(map[string]interface{}{"basic-auth": []interface{}{"u"}})
		assert.Error(t, err)
	})

	t.Run("bad type", func(t *testing.T) {
		_, err := FromMap(map[string]interface{}{"max-redirects": "lots"})
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "reqchain/request: "))
	})
}

func TestOptions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := New("GET", "http://example.com",
		WithContext(ctx),
		WithContentType("json", "UTF-8"),
		WithAccept("edn"),
		WithAcceptEncoding("gzip"),
		WithBodyEncoding("ISO-8859-1"),
		WithJSONOpts(JSONOpts{Indent: 2}),
		WithOAuthToken("tok"),
		WithCoerce(CoerceExceptional),
		WithDecompressBody(false),
		WithForceRedirects(),
		WithThrowExceptions(false),
		WithThrowEntireMessage(),
		WithIgnoreUnknownHost(),
		WithCookieStore(cookie.NewJar()),
		WithDecodeCookies(false),
		WithDecodeBodyHeaders(),
		WithTimeouts(time.Second, 2*time.Second),
		WithQueryParams("a=b"),
		WithFormParams(map[string]interface{}{"c": "d"}),
	)
	assert.Same(t, ctx, r.Context())
	assert.Equal(t, "json", r.ContentType)
	assert.Equal(t, "UTF-8", r.CharacterEncoding)
	assert.Equal(t, "edn", r.Accept)
	assert.Equal(t, []string{"gzip"}, r.AcceptEncoding)
	assert.Equal(t, "ISO-8859-1", r.BodyEncoding)
	assert.Equal(t, 2, r.JSONOpts.Indent)
	assert.Equal(t, "tok", r.OAuthToken)
	assert.Equal(t, CoerceExceptional, r.Coerce)
	assert.False(t, r.DecompressesBody())
	assert.True(t, r.ForceRedirects)
	assert.False(t, r.ThrowsExceptions())
	assert.True(t, r.ThrowEntireMessage)
	assert.True(t, r.IgnoreUnknownHost)
	assert.NotNil(t, r.CookieStore)
	assert.False(t, r.DecodesCookies())
	assert.True(t, r.DecodeBodyHeaders)
	assert.Equal(t, time.Second, r.ConnectTimeout)
	assert.Equal(t, 2*time.Second, r.SocketTimeout)
	assert.Equal(t, "a=b", r.QueryParams)
	assert.NotNil(t, r.FormParams)
}
