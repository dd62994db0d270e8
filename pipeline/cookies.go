// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"github.com/gogama/reqchain/cookie"
	"github.com/gogama/reqchain/request"
)

// WrapCookies encodes request cookies into the Cookie header and
// decodes Set-Cookie response headers into Response.Cookies.
//
// Cookies come from the CookieStore, if any, for the request host and
// path, overlaid with Request.Cookies. Unless DecodeCookies is false,
// Set-Cookie headers are removed from the response once decoded and
// the cookies accepted for the request host are added to the
// CookieStore. When DecodeCookies is false the response and the store
// are left alone.
func WrapCookies(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		if cookies := requestCookies(r); len(cookies) > 0 {
			r = clone(r)
			r.Header.Set("cookie", cookie.EncodeHeader(cookies))
			r.Cookies = nil
		}
		resp, err := next(r)
		if err != nil || resp == nil || !r.DecodesCookies() {
			return resp, err
		}
		values := resp.Header.Values("set-cookie")
		if len(values) == 0 {
			return resp, nil
		}
		resp.Cookies = cookie.DecodeSetCookies(values)
		resp.Header.Del("set-cookie")
		if r.CookieStore != nil {
			for _, v := range values {
				c, ok := cookie.DecodeSetCookie(v)
				if !ok {
					continue
				}
				if c, ok = cookie.Accept(c, r.Host); ok {
					r.CookieStore.Add(c)
				} else {
					r.Log().WithField("cookie", c.Name).Debug("rejected cookie domain")
				}
			}
		}
		return resp, nil
	}
}

func requestCookies(r *request.Request) map[string]cookie.Cookie {
	if r.CookieStore == nil {
		return r.Cookies
	}
	matched := r.CookieStore.Match(r.Host, r.Path, r.Scheme == "https")
	if len(matched) == 0 {
		return r.Cookies
	}
	m := make(map[string]cookie.Cookie, len(matched)+len(r.Cookies))
	for i := len(matched) - 1; i >= 0; i-- {
		m[matched[i].Name] = matched[i]
	}
	for k, c := range r.Cookies {
		m[k] = c
	}
	return m
}
