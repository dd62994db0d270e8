// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package coerce

import "github.com/gogama/reqchain/request"

// UnsupportedBodyTypeError is returned when a request body has a type
// input coercion does not recognize.
type UnsupportedBodyTypeError struct {
	Type string
}

func (err *UnsupportedBodyTypeError) Error() string {
	return "reqchain/coerce: unsupported body type " + err.Type +
		" (use nil, string, []byte, io.Reader, *os.File or coerce.File)"
}

// ParseError is returned when a response body cannot be decoded in the
// requested structured format.
type ParseError struct {
	Format request.Format
	Err    error
}

func (err *ParseError) Error() string {
	return "reqchain/coerce: cannot parse body as " + string(err.Format) + ": " + err.Err.Error()
}

func (err *ParseError) Unwrap() error {
	return err.Err
}
