// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package codec

// DecompressionError is returned when compressed content is malformed.
type DecompressionError struct {
	Encoding string
	Err      error
}

func (err *DecompressionError) Error() string {
	return "reqchain/codec: " + err.Encoding + " decompression failed: " + err.Err.Error()
}

func (err *DecompressionError) Unwrap() error {
	return err.Err
}

// EncodingError is returned when a character set is not supported, or
// when text cannot be represented in it.
type EncodingError struct {
	Charset string
	Err     error
}

func (err *EncodingError) Error() string {
	return "reqchain/codec: charset " + err.Charset + ": " + err.Err.Error()
}

func (err *EncodingError) Unwrap() error {
	return err.Err
}
