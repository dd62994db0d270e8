// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package cookie decodes Set-Cookie response headers, encodes Cookie
// request headers, and provides an in-memory cookie store which may be
// shared across concurrent requests.
package cookie

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// A Cookie is a single decoded HTTP cookie.
//
// Discard is true for session cookies, that is cookies with no
// expiry, and for cookies which carried an explicit Discard attribute.
//
// HostOnly is set by Accept for a cookie which had no Domain attribute:
// such a cookie applies to its Domain exactly and not to subdomains.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time
	Secure   bool
	Discard  bool
	HTTPOnly bool
	HostOnly bool
	Version  int
}

// Expired reports whether the cookie has an expiry at or before now.
func (c Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// Key returns the key which identifies c within a Store.
func (c Cookie) Key() Key {
	p := c.Path
	if p == "" {
		p = "/"
	}
	return Key{Domain: strings.ToLower(strings.TrimPrefix(c.Domain, ".")), Path: p, Name: c.Name}
}

// A Key identifies a cookie by the scope it applies to and its name.
type Key struct {
	Domain string
	Path   string
	Name   string
}

var expiresLayouts = []string{
	time.RFC1123,
	"Mon, 02-Jan-2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 -0700",
	time.RFC850,
	"Monday, 02-Jan-06 15:04:05 MST",
	time.ANSIC,
	"Mon, 02-Jan-06 15:04:05 MST",
}

// DecodeSetCookie decodes a single Set-Cookie header value. The second
// return value is false if the header is empty or has no name=value
// pair, in which case no cookie should be recorded.
//
// Recognized attributes are Domain, Path, Expires, Max-Age, Secure,
// HttpOnly, Discard and Version. Max-Age takes precedence over Expires.
// Unknown or unparseable attributes are ignored.
func DecodeSetCookie(header string) (Cookie, bool) {
	return decodeSetCookie(header, time.Now())
}

func decodeSetCookie(header string, now time.Time) (Cookie, bool) {
	parts := strings.Split(header, ";")
	nv := strings.TrimSpace(parts[0])
	eq := strings.IndexByte(nv, '=')
	if eq <= 0 {
		return Cookie{}, false
	}
	c := Cookie{
		Name:  strings.TrimSpace(nv[:eq]),
		Value: unquote(strings.TrimSpace(nv[eq+1:])),
		Path:  "/",
	}
	if c.Name == "" {
		return Cookie{}, false
	}

	var maxAge *int
	for _, attr := range parts[1:] {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}
		k, v := attr, ""
		if i := strings.IndexByte(attr, '='); i >= 0 {
			k, v = strings.TrimSpace(attr[:i]), unquote(strings.TrimSpace(attr[i+1:]))
		}
		switch strings.ToLower(k) {
		case "domain":
			if v != "" {
				c.Domain = strings.ToLower(v)
			}
		case "path":
			if strings.HasPrefix(v, "/") {
				c.Path = v
			}
		case "expires":
			if t, ok := parseExpires(v); ok {
				c.Expires = t
			}
		case "max-age":
			if n, err := strconv.Atoi(v); err == nil {
				maxAge = &n
			}
		case "secure":
			c.Secure = true
		case "httponly":
			c.HTTPOnly = true
		case "discard":
			c.Discard = true
		case "version":
			if n, err := strconv.Atoi(v); err == nil {
				c.Version = n
			}
		}
	}

	if maxAge != nil {
		if *maxAge <= 0 {
			c.Expires = time.Unix(0, 0).UTC()
		} else {
			c.Expires = now.Add(time.Duration(*maxAge) * time.Second).UTC()
		}
	}
	if c.Expires.IsZero() {
		c.Discard = true
	}
	return c, true
}

func parseExpires(v string) (time.Time, bool) {
	for _, layout := range expiresLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// DecodeSetCookies decodes every Set-Cookie header value in values and
// returns the resulting cookies keyed by name. When a name occurs more
// than once the last occurrence wins.
func DecodeSetCookies(values []string) map[string]Cookie {
	if len(values) == 0 {
		return nil
	}
	now := time.Now()
	m := make(map[string]Cookie, len(values))
	for _, v := range values {
		if c, ok := decodeSetCookie(v, now); ok {
			m[c.Name] = c
		}
	}
	return m
}

// EncodeHeader serializes cookies into a single Cookie request header
// value: name=value pairs, without attributes, joined by "; ". Pairs are
// ordered by name. An empty string is returned if there are no cookies.
func EncodeHeader(cookies map[string]Cookie) string {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		c := cookies[name]
		if c.Name == "" {
			c.Name = name
		}
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}
