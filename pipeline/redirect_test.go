// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/gogama/reqchain/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain answers /r/k with a 302 to /r/k+1 while k <= n, and 200
// afterwards. A negative n redirects forever.
func chain(n int) func(*request.Request, string) *request.Response {
	return func(r *request.Request, _ string) *request.Response {
		k, _ := strconv.Atoi(strings.TrimPrefix(r.Path, "/r/"))
		if n < 0 || k <= n {
			return reply(302, "moved", "location", fmt.Sprintf("/r/%d", k+1))
		}
		return reply(200, "done")
	}
}

func TestWrapRedirects_Limit(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("%d redirects with max %d", n, n-1), func(t *testing.T) {
			f := newFake(chain(n))
			resp, err := do(t, f, request.New("GET", "http://example.com/r/1",
				request.WithMaxRedirects(n-1),
				request.WithThrowExceptions(false)))
			require.NoError(t, err)
			assert.Equal(t, 302, resp.Status)
			assert.Len(t, resp.TraceRedirects, n)
			assert.Equal(t, "http://example.com/r/1", resp.TraceRedirects[0])
			assert.Len(t, f.all(), n)
		})

		t.Run(fmt.Sprintf("%d redirects with max %d", n, n), func(t *testing.T) {
			f := newFake(chain(n))
			resp, err := do(t, f, request.New("GET", "http://example.com/r/1", request.WithMaxRedirects(n)))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.Status)
			assert.Equal(t, "done", resp.Body)
			assert.Len(t, resp.TraceRedirects, n+1)
			assert.Equal(t, fmt.Sprintf("http://example.com/r/%d", n+1), resp.TraceRedirects[n])
		})

		t.Run(fmt.Sprintf("loop with max %d", n), func(t *testing.T) {
			f := newFake(chain(-1))
			_, err := do(t, f, request.New("GET", "http://example.com/r/1", request.WithMaxRedirects(n)))
			var tooMany *TooManyRedirectsError
			require.True(t, errors.As(err, &tooMany), "got %v", err)
			assert.Equal(t, n+1, tooMany.Count)
			assert.Equal(t, 302, tooMany.Response.Status)
			assert.EqualError(t, err, "reqchain/pipeline: too many redirects: "+strconv.Itoa(n+1))
			for _, x := range f.all() {
				assert.True(t, x.respBody.isClosed())
			}
		})
	}

	t.Run("default limit", func(t *testing.T) {
		f := newFake(chain(-1))
		_, err := do(t, f, request.New("GET", "http://example.com/r/1"))
		var tooMany *TooManyRedirectsError
		require.True(t, errors.As(err, &tooMany))
		assert.Equal(t, request.DefaultMaxRedirects+1, tooMany.Count)
	})
}

func TestWrapRedirects_Methods(t *testing.T) {
	testCases := []struct {
		name       string
		status     int
		method     string
		force      bool
		followed   bool
		nextMethod string
		keepBody   bool
	}{
		{"303 GET", 303, "GET", false, true, "GET", false},
		{"303 POST", 303, "POST", false, true, "GET", false},
		{"303 PUT", 303, "PUT", false, true, "GET", false},
		{"303 DELETE", 303, "DELETE", false, true, "GET", false},
		{"301 GET", 301, "GET", false, true, "GET", false},
		{"302 HEAD", 302, "HEAD", false, true, "HEAD", false},
		{"301 POST", 301, "POST", false, false, "", false},
		{"302 PUT", 302, "PUT", false, false, "", false},
		{"301 POST forced", 301, "POST", true, true, "GET", false},
		{"302 DELETE forced", 302, "DELETE", true, true, "GET", false},
		{"307 GET", 307, "GET", false, true, "GET", false},
		{"307 POST", 307, "POST", false, true, "POST", true},
		{"307 PUT", 307, "PUT", false, true, "PUT", true},
		{"307 POST forced", 307, "POST", true, true, "GET", false},
		{"307 GET forced", 307, "GET", true, true, "GET", false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			f := newFake(func(r *request.Request, _ string) *request.Response {
				if r.Path == "/start" {
					return reply(testCase.status, "", "location", "/next")
				}
				return reply(200, "next")
			})
			opts := []request.Option{request.WithBody("payload", 0), request.WithThrowExceptions(false)}
			if testCase.force {
				opts = append(opts, request.WithForceRedirects())
			}
			resp, err := do(t, f, request.New(testCase.method, "http://example.com/start", opts...))
			require.NoError(t, err)

			all := f.all()
			if !testCase.followed {
				assert.Equal(t, testCase.status, resp.Status)
				assert.Len(t, all, 1)
				return
			}
			require.Len(t, all, 2)
			assert.Equal(t, 200, resp.Status)
			assert.Equal(t, testCase.nextMethod, all[1].req.Method)
			assert.Equal(t, "/next", all[1].req.Path)
			if testCase.keepBody {
				assert.Equal(t, "payload", all[1].body)
			} else {
				assert.Empty(t, all[1].body)
				assert.Nil(t, all[1].req.Entity)
			}
			assert.True(t, all[0].respBody.isClosed())
		})
	}
}

func TestWrapRedirects_Behavior(t *testing.T) {
	t.Run("no location", func(t *testing.T) {
		f := newFake(func(*request.Request, string) *request.Response { return reply(302, "nowhere") })
		resp, err := do(t, f, request.New("GET", "http://example.com/"))
		require.NoError(t, err)
		assert.Equal(t, 302, resp.Status)
		assert.Equal(t, "nowhere", resp.Body)
		assert.Len(t, f.all(), 1)
	})

	t.Run("follow disabled", func(t *testing.T) {
		f := newFake(chain(3))
		resp, err := do(t, f, request.New("GET", "http://example.com/r/1", request.WithFollowRedirects(false)))
		require.NoError(t, err)
		assert.Equal(t, 302, resp.Status)
		assert.Equal(t, []string{"http://example.com/r/1"}, resp.TraceRedirects)
		assert.Equal(t, "/r/2", resp.Header.Get("location"))
	})

	t.Run("non redirect status", func(t *testing.T) {
		f := newFake(func(*request.Request, string) *request.Response { return reply(304, "") })
		resp, err := do(t, f, request.New("GET", "http://example.com/", request.WithThrowExceptions(false)))
		require.NoError(t, err)
		assert.Equal(t, 304, resp.Status)
		assert.Len(t, f.all(), 1)
	})

	t.Run("absolute and relative locations", func(t *testing.T) {
		f := newFake(func(r *request.Request, _ string) *request.Response {
			switch {
			case r.Host == "example.com" && r.Path == "/a/b":
				return reply(301, "", "location", "c?x=1")
			case r.Host == "example.com" && r.Path == "/a/c":
				return reply(302, "", "location", "https://other.org:8443/d")
			default:
				return reply(200, r.Scheme+"://"+r.Host+":"+strconv.Itoa(r.Port)+r.Path)
			}
		})
		resp, err := do(t, f, request.New("GET", "http://example.com/a/b?q=1",
			request.WithQueryParams(map[string]string{"p": "2"})))
		require.NoError(t, err)
		assert.Equal(t, "https://other.org:8443/d", resp.Body)
		assert.Equal(t, []string{
			"http://example.com/a/b?q=1",
			"http://example.com/a/c?x=1",
			"https://other.org:8443/d",
		}, resp.TraceRedirects)
		all := f.all()
		require.Len(t, all, 3)
		assert.Equal(t, "q=1&p=2", all[0].req.QueryString)
		assert.Equal(t, "x=1", all[1].req.QueryString, "query params not re-applied")
		assert.Equal(t, 2, all[1].req.RedirectsCount)
		assert.Equal(t, 3, all[2].req.RedirectsCount)
	})

	t.Run("authorization dropped across hosts", func(t *testing.T) {
		f := newFake(func(r *request.Request, _ string) *request.Response {
			switch r.Path {
			case "/same":
				return reply(302, "", "location", "/other")
			case "/other":
				return reply(302, "", "location", "http://elsewhere.org/final")
			default:
				return reply(200, "")
			}
		})
		_, err := do(t, f, request.New("GET", "http://example.com/same",
			request.WithBasicAuth("u", "p"),
			request.WithHeader("X-Keep", "yes")))
		require.NoError(t, err)
		all := f.all()
		require.Len(t, all, 3)
		assert.NotEmpty(t, all[0].req.Header.Get("authorization"))
		assert.Equal(t, all[0].req.Header.Get("authorization"), all[1].req.Header.Get("authorization"))
		assert.Empty(t, all[2].req.Header.Get("authorization"))
		assert.Equal(t, "yes", all[2].req.Header.Get("x-keep"))
	})

	t.Run("authorization dropped on scheme change", func(t *testing.T) {
		f := newFake(func(r *request.Request, _ string) *request.Response {
			if r.Scheme == "https" {
				return reply(302, "", "location", "http://example.com/next")
			}
			return reply(200, "")
		})
		_, err := do(t, f, request.New("GET", "https://example.com/start",
			request.WithBasicAuth("u", "p"),
			request.WithOAuthToken("tok")))
		require.NoError(t, err)
		all := f.all()
		require.Len(t, all, 2)
		assert.NotEmpty(t, all[0].req.Header.Get("authorization"))
		assert.Equal(t, "http", all[1].req.Scheme)
		assert.Empty(t, all[1].req.Header.Get("authorization"))
		assert.Nil(t, all[1].req.BasicAuth)
		assert.Empty(t, all[1].req.OAuthToken)
	})

	t.Run("first trace entry normalized", func(t *testing.T) {
		f := newFake(chain(1))
		resp, err := do(t, f, request.New("GET", "HTTP://Example.COM:80/r/1"))
		require.NoError(t, err)
		assert.Equal(t, []string{
			"http://example.com/r/1",
			"http://example.com/r/2",
		}, resp.TraceRedirects)
	})

	t.Run("errors pass through", func(t *testing.T) {
		boom := errors.New("boom")
		h := WrapRedirects(func(*request.Request) (*request.Response, error) { return nil, boom })
		_, err := h(request.New("GET", "http://example.com/"))
		assert.Same(t, boom, err)
	})

	t.Run("bad location", func(t *testing.T) {
		f := newFake(func(*request.Request, string) *request.Response {
			return reply(302, "", "location", "ftp://example.com/file")
		})
		_, err := do(t, f, request.New("GET", "http://example.com/"))
		assert.Error(t, err)
	})
}
