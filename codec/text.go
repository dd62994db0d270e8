// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"encoding/base64"
	"net/url"
)

// URLEncode percent-encodes s following the
// application/x-www-form-urlencoded rules: spaces become '+'.
func URLEncode(s string) string {
	return url.QueryEscape(s)
}

// URLDecode reverses URLEncode.
func URLDecode(s string) (string, error) {
	return url.QueryUnescape(s)
}

// Base64Encode encodes b using standard Base64 with padding and no line
// wrapping.
func Base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64Decode decodes standard Base64.
func Base64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
