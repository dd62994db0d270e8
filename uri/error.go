// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package uri

import "strconv"

// MalformedURLError is returned when a URL cannot be parsed into a
// Target.
type MalformedURLError struct {
	URL    string
	Reason string
	Err    error
}

func malformed(url, reason string) error {
	return &MalformedURLError{URL: url, Reason: reason}
}

func (err *MalformedURLError) Error() string {
	msg := "reqchain/uri: malformed url " + strconv.Quote(err.URL) + ": " + err.Reason
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *MalformedURLError) Unwrap() error {
	return err.Err
}
