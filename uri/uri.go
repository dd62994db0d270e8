// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package uri

import (
	"net"
	urlpkg "net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// A Target is the structured form of an absolute http or https URL, as
// used to address a request.
//
// Port is zero when the URL did not name a port, or named the default
// port for the scheme. Use EffectivePort to get the port a transport
// should connect to.
type Target struct {
	Scheme   string
	UserInfo string
	Host     string
	Port     int
	Path     string
	RawQuery string
}

// DefaultPort returns the default port for scheme, or zero if the
// scheme is not known.
func DefaultPort(scheme string) int {
	switch strings.ToLower(scheme) {
	case "http":
		return 80
	case "https":
		return 443
	default:
		return 0
	}
}

// EffectivePort returns t.Port if set, otherwise the default port for
// the scheme.
func (t *Target) EffectivePort() int {
	if t.Port != 0 {
		return t.Port
	}
	return DefaultPort(t.Scheme)
}

// HostPort returns the host and effective port joined for dialing, with
// IPv6 literals bracketed.
func (t *Target) HostPort() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.EffectivePort()))
}

// Authority returns the host, bracketed if it is an IPv6 literal, with
// the port appended if it is set.
func (t *Target) Authority() string {
	host := t.Host
	if strings.IndexByte(host, ':') >= 0 {
		host = "[" + host + "]"
	}
	if t.Port != 0 {
		host += ":" + strconv.Itoa(t.Port)
	}
	return host
}

// RequestURI returns the path and query in the form sent on the
// request line.
func (t *Target) RequestURI() string {
	p := t.Path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if t.RawQuery != "" {
		p += "?" + t.RawQuery
	}
	return p
}

// String renders t. It is equivalent to Render(t).
func (t *Target) String() string {
	return Render(t)
}

// Parse parses an absolute http or https URL into a Target.
//
// Characters which are not legal in the path or query are
// percent-encoded; existing escape sequences are kept as they are. The
// fragment, if any, is dropped. A port equal to the scheme's default
// port is omitted from the result.
func Parse(raw string) (*Target, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, malformed(raw, "empty url")
	}
	i := strings.Index(s, "://")
	if i <= 0 {
		return nil, malformed(raw, "missing scheme")
	}
	scheme := strings.ToLower(s[:i])
	if !validScheme(scheme) {
		return nil, malformed(raw, "invalid scheme")
	}
	if DefaultPort(scheme) == 0 {
		return nil, malformed(raw, "unsupported scheme "+strconv.Quote(scheme))
	}
	rest := s[i+3:]
	if j := strings.IndexByte(rest, '#'); j >= 0 {
		rest = rest[:j]
	}

	authority := rest
	tail := ""
	if j := strings.IndexAny(rest, "/?"); j >= 0 {
		authority, tail = rest[:j], rest[j:]
	}

	t := &Target{Scheme: scheme}
	if j := strings.LastIndexByte(authority, '@'); j >= 0 {
		t.UserInfo, authority = authority[:j], authority[j+1:]
	}
	host, port, err := splitHostPort(authority)
	if err != nil {
		return nil, &MalformedURLError{URL: raw, Reason: err.Error()}
	}
	if port != 0 && port != DefaultPort(scheme) {
		t.Port = port
	}
	t.Host = host

	path, query := tail, ""
	if j := strings.IndexByte(tail, '?'); j >= 0 {
		path, query = tail[:j], tail[j+1:]
	}
	if path == "" {
		path = "/"
	}
	t.Path = escape(path, encodePath)
	t.RawQuery = escape(query, encodeQuery)
	return t, nil
}

// Render converts t back into URL text. For a Target produced by Parse,
// Parse(Render(t)) yields a Target equal to t.
func Render(t *Target) string {
	var b strings.Builder
	b.WriteString(t.Scheme)
	b.WriteString("://")
	if t.UserInfo != "" {
		b.WriteString(t.UserInfo)
		b.WriteByte('@')
	}
	b.WriteString(t.Authority())
	b.WriteString(t.RequestURI())
	return b.String()
}

// Resolve resolves ref, which may be absolute or relative, against base
// and returns the resulting Target.
func Resolve(base *Target, ref string) (*Target, error) {
	b, err := urlpkg.Parse(Render(base))
	if err != nil {
		return nil, &MalformedURLError{URL: Render(base), Reason: "invalid base", Err: err}
	}
	escaped := escape(strings.TrimSpace(ref), encodeReference)
	r, err := urlpkg.Parse(escaped)
	if err != nil {
		return nil, &MalformedURLError{URL: ref, Reason: "invalid reference", Err: err}
	}
	u := b.ResolveReference(r)
	u.Fragment = ""
	u.RawFragment = ""
	return Parse(u.String())
}

func validScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return s != ""
}

type hostError string

func (e hostError) Error() string { return string(e) }

func splitHostPort(authority string) (string, int, error) {
	var host, port string
	if strings.HasPrefix(authority, "[") {
		end := strings.IndexByte(authority, ']')
		if end < 0 {
			return "", 0, hostError("missing ']' in host")
		}
		host = authority[1:end]
		rest := authority[end+1:]
		if rest != "" {
			if rest[0] != ':' {
				return "", 0, hostError("unexpected characters after ipv6 literal")
			}
			port = rest[1:]
		}
		addr := host
		if k := strings.IndexByte(addr, '%'); k >= 0 {
			addr = addr[:k]
		}
		if ip := net.ParseIP(addr); ip == nil || !strings.Contains(addr, ":") {
			return "", 0, hostError("invalid ipv6 literal " + strconv.Quote(host))
		}
	} else {
		host = authority
		if k := strings.LastIndexByte(authority, ':'); k >= 0 {
			host, port = authority[:k], authority[k+1:]
		}
		if host == "" {
			return "", 0, hostError("missing host")
		}
		if !isASCII(host) {
			ascii, err := idna.Lookup.ToASCII(host)
			if err != nil {
				return "", 0, hostError("invalid host " + strconv.Quote(host))
			}
			host = ascii
		}
		if strings.IndexFunc(host, isNotHostRune) >= 0 {
			return "", 0, hostError("invalid host " + strconv.Quote(host))
		}
	}
	host = strings.ToLower(host)

	if port == "" {
		return host, 0, nil
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 || strings.TrimLeft(port, "0123456789") != "" {
		return "", 0, hostError("invalid port " + strconv.Quote(port))
	}
	return host, n, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func isNotHostRune(r rune) bool {
	switch {
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		return false
	}
	return !strings.ContainsRune("-._~%!$&'()*+,;=", r)
}
