// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"strings"

	"github.com/gogama/reqchain/request"
)

// ParseLinks parses the values of Link headers (RFC 8288) into links
// keyed by rel. A link with several space-separated rels is stored
// under each; a link without rel is dropped.
func ParseLinks(values []string) map[string]request.Link {
	var links map[string]request.Link
	for _, v := range values {
		for _, part := range splitOutside(v, ',') {
			link, rels, ok := parseLink(part)
			if !ok {
				continue
			}
			if links == nil {
				links = make(map[string]request.Link)
			}
			for _, rel := range rels {
				links[rel] = link
			}
		}
	}
	return links
}

func parseLink(s string) (request.Link, []string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "<") {
		return request.Link{}, nil, false
	}
	end := strings.IndexByte(s, '>')
	if end < 0 {
		return request.Link{}, nil, false
	}
	link := request.Link{URL: strings.TrimSpace(s[1:end])}
	for _, param := range splitOutside(s[end+1:], ';') {
		param = strings.TrimSpace(param)
		if param == "" {
			continue
		}
		k, v := param, ""
		if i := strings.IndexByte(param, '='); i >= 0 {
			k, v = strings.TrimSpace(param[:i]), strings.TrimSpace(param[i+1:])
		}
		if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
			v = v[1 : len(v)-1]
		}
		if link.Params == nil {
			link.Params = make(map[string]string)
		}
		link.Params[strings.ToLower(k)] = v
	}
	rels := strings.Fields(link.Params["rel"])
	return link, rels, len(rels) > 0
}

// splitOutside splits s on sep where sep is not inside <> or quotes.
func splitOutside(s string, sep byte) []string {
	var parts []string
	var angle, quote bool
	start := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case quote:
			if c == '\\' {
				i++
			} else if c == '"' {
				quote = false
			}
		case c == '"':
			quote = true
		case c == '<':
			angle = true
		case c == '>':
			angle = false
		case c == sep && !angle:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// WrapLinks parses the Link response header into Response.Links.
func WrapLinks(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		resp, err := next(r)
		if err != nil || resp == nil {
			return resp, err
		}
		if links := ParseLinks(resp.Header.Values("link")); links != nil {
			resp.Links = links
		}
		return resp, nil
	}
}
