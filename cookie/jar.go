// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cookie

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// A Store holds cookies for the lifetime of a client session. Store
// implementations must be safe for concurrent use.
type Store interface {
	// Add stores c, replacing any cookie with the same Key. Adding an
	// expired cookie removes the stored cookie with the same Key.
	Add(c Cookie)
	// All returns a snapshot of every stored cookie.
	All() map[Key]Cookie
	// Clear removes every stored cookie.
	Clear()
	// Match returns the unexpired cookies which apply to a request
	// for the given host and path. Secure cookies are only returned
	// when secure is true.
	Match(host, path string, secure bool) []Cookie
}

// A Jar is the in-memory Store. The zero value is an empty Jar ready to
// use.
type Jar struct {
	mu      sync.RWMutex
	cookies map[Key]Cookie
	now     func() time.Time
}

// NewJar returns an empty Jar.
func NewJar() *Jar {
	return &Jar{}
}

func (j *Jar) clock() time.Time {
	if j.now != nil {
		return j.now()
	}
	return time.Now()
}

func (j *Jar) Add(c Cookie) {
	k := c.Key()
	j.mu.Lock()
	defer j.mu.Unlock()
	if c.Expired(j.clock()) {
		delete(j.cookies, k)
		return
	}
	if j.cookies == nil {
		j.cookies = make(map[Key]Cookie)
	}
	if c.Path == "" {
		c.Path = "/"
	}
	j.cookies[k] = c
}

func (j *Jar) All() map[Key]Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	m := make(map[Key]Cookie, len(j.cookies))
	for k, c := range j.cookies {
		m[k] = c
	}
	return m
}

func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies = nil
}

// Remove deletes the cookie with key k, if present.
func (j *Jar) Remove(k Key) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.cookies, k)
}

// Len returns the number of stored cookies.
func (j *Jar) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.cookies)
}

func (j *Jar) Match(host, path string, secure bool) []Cookie {
	host = strings.ToLower(host)
	if path == "" {
		path = "/"
	}
	now := j.clock()
	var expired []Key
	var matched []Cookie

	j.mu.RLock()
	for k, c := range j.cookies {
		if c.Expired(now) {
			expired = append(expired, k)
			continue
		}
		if c.Secure && !secure {
			continue
		}
		if c.HostOnly && host != k.Domain {
			continue
		}
		if !domainMatch(host, k.Domain) || !pathMatch(path, k.Path) {
			continue
		}
		matched = append(matched, c)
	}
	j.mu.RUnlock()

	if len(expired) > 0 {
		j.mu.Lock()
		for _, k := range expired {
			if c, ok := j.cookies[k]; ok && c.Expired(now) {
				delete(j.cookies, k)
			}
		}
		j.mu.Unlock()
	}

	// More specific paths first, as user agents send them.
	sortByPath(matched)
	return matched
}

func sortByPath(cookies []Cookie) {
	sort.SliceStable(cookies, func(i, j int) bool {
		if len(cookies[i].Path) != len(cookies[j].Path) {
			return len(cookies[i].Path) > len(cookies[j].Path)
		}
		return cookies[i].Name < cookies[j].Name
	})
}

// domainMatch reports whether a cookie scoped to domain applies to
// host. An empty domain applies to every host.
func domainMatch(host, domain string) bool {
	if domain == "" || host == domain {
		return true
	}
	return strings.HasSuffix(host, "."+domain)
}

func pathMatch(reqPath, cookiePath string) bool {
	if reqPath == cookiePath || cookiePath == "/" {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}

// Accept reports whether a cookie received in a response from host may
// be stored, and returns it with its Domain scoped for storage. A cookie
// with no Domain attribute is scoped to host alone and marked HostOnly.
// A cookie whose Domain is a
// public suffix, such as "com" or "co.uk", or which does not cover host
// is rejected.
func Accept(c Cookie, host string) (Cookie, bool) {
	host = strings.ToLower(host)
	if c.Domain == "" {
		c.Domain = host
		c.HostOnly = true
		return c, true
	}
	d := strings.ToLower(strings.TrimPrefix(c.Domain, "."))
	if d == "" {
		return c, false
	}
	if d != host {
		if suffix, _ := publicsuffix.PublicSuffix(d); suffix == d {
			return c, false
		}
	}
	if !domainMatch(host, d) {
		return c, false
	}
	c.Domain = d
	return c, true
}
