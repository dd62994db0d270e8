// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gogama/reqchain/request"
)

// HTTPStatusError is returned for a response whose status is not
// unexceptional when the request throws exceptions.
//
// Response is the complete response, with its body already coerced. If
// the request asked for a streamed body, the caller must close it.
type HTTPStatusError struct {
	Response *request.Response
	// EntireMessage includes the headers and body in Error.
	EntireMessage bool
}

// Status returns the response status.
func (err *HTTPStatusError) Status() int {
	return err.Response.Status
}

func (err *HTTPStatusError) Error() string {
	msg := "reqchain/pipeline: status " + strconv.Itoa(err.Response.Status)
	if !err.EntireMessage {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	keys := make([]string, 0, len(err.Response.Header))
	for k := range err.Response.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strings.Join(err.Response.Header[k], ", "))
	}
	switch body := err.Response.Body.(type) {
	case nil:
	case io.Reader:
		b.WriteString("\n\n<stream>")
	case []byte:
		b.WriteString("\n\n")
		b.Write(body)
	default:
		b.WriteString("\n\n")
		fmt.Fprint(&b, body)
	}
	return b.String()
}

// WrapExceptions turns responses with a status outside the
// unexceptional set into *HTTPStatusError, unless ThrowExceptions is
// false.
func WrapExceptions(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		resp, err := next(r)
		if err != nil || resp == nil || !r.ThrowsExceptions() || request.Unexceptional(resp.Status) {
			return resp, err
		}
		return nil, &HTTPStatusError{Response: resp, EntireMessage: r.ThrowEntireMessage}
	}
}
