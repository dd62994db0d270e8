// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"bytes"
	"io/ioutil"
	"strings"

	"github.com/gogama/reqchain/coerce"
	"github.com/gogama/reqchain/request"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BodyHeaders returns the headers declared in the head of an HTML
// document by <meta http-equiv> elements, with lower-case names. A
// <meta charset> element is reported as a content-type header if the
// document declares none.
func BodyHeaders(doc []byte) request.Header {
	h := make(request.Header)
	var charset string
	z := html.NewTokenizer(bytes.NewReader(doc))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return finishBodyHeaders(h, charset)
		case html.StartTagToken, html.SelfClosingTagToken:
			t := z.Token()
			switch t.DataAtom {
			case atom.Body:
				return finishBodyHeaders(h, charset)
			case atom.Meta:
				var equiv, content string
				for _, a := range t.Attr {
					switch strings.ToLower(a.Key) {
					case "http-equiv":
						equiv = strings.ToLower(strings.TrimSpace(a.Val))
					case "content":
						content = a.Val
					case "charset":
						charset = strings.TrimSpace(a.Val)
					}
				}
				if equiv != "" {
					h.Add(equiv, content)
				}
			}
		case html.EndTagToken:
			if z.Token().DataAtom == atom.Head {
				return finishBodyHeaders(h, charset)
			}
		}
	}
}

func finishBodyHeaders(h request.Header, charset string) request.Header {
	if charset != "" && !h.Has("content-type") {
		h.Set("content-type", "text/html; charset="+charset)
	}
	return h
}

// WrapAdditionalHeaderParsing merges the headers declared in the head
// of an HTML response body into the response headers when
// DecodeBodyHeaders is set. Declared headers replace received ones of
// the same name. The body is buffered and handed on as a new stream.
func WrapAdditionalHeaderParsing(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		resp, err := next(r)
		if err != nil || resp == nil || !r.DecodeBodyHeaders || resp.Body == nil {
			return resp, err
		}
		if mt, _ := coerce.MediaType(resp.Header.Get("content-type")); mt != "text/html" && mt != "application/xhtml+xml" {
			return resp, nil
		}
		rc, ok := readCloser(resp.Body)
		if !ok {
			return resp, nil
		}
		b, err := ioutil.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, err
		}
		out := resp.Clone()
		if out.Header == nil {
			out.Header = make(request.Header)
		}
		for k, vs := range BodyHeaders(b) {
			out.Header[k] = vs
		}
		out.Body = ioutil.NopCloser(bytes.NewReader(b))
		return out, nil
	}
}
