// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "strings"

// A Format names the representation the response body should be
// coerced to. Any value which is not one of the constants below is
// taken to be the name of a character set, and the body is decoded to a
// string in that character set.
type Format string

const (
	// String decodes the body to a string using the character set from
	// the request's CharacterEncoding, defaulting to UTF-8. It is the
	// zero value.
	String Format = ""
	// ByteArray leaves the body as a []byte.
	ByteArray Format = "byte-array"
	// Stream leaves the body as an open io.ReadCloser which the caller
	// must close.
	Stream Format = "stream"
	// JSON decodes the first JSON value in the body, with object keys
	// converted to edn.Keyword.
	JSON Format = "json"
	// JSONStrict decodes the body as exactly one JSON value, rejecting
	// trailing content, with object keys converted to edn.Keyword.
	JSONStrict Format = "json-strict"
	// JSONStringKeys is JSON with object keys kept as strings.
	JSONStringKeys Format = "json-string-keys"
	// JSONStrictStringKeys is JSONStrict with object keys kept as
	// strings.
	JSONStrictStringKeys Format = "json-strict-string-keys"
	// EDN reads the body as a single EDN form. Code evaluation forms
	// are rejected.
	EDN Format = "edn"
	// Clojure is an alias for EDN.
	Clojure Format = "clojure"
	// YAML decodes the body as a YAML document.
	YAML Format = "yaml"
	// Auto chooses a representation from the response Content-Type.
	Auto Format = "auto"
)

// IsJSON reports whether f is one of the JSON formats.
func (f Format) IsJSON() bool {
	return strings.HasPrefix(string(f), "json")
}

// StringKeys reports whether f is a JSON format which keeps object keys
// as strings.
func (f Format) StringKeys() bool {
	return f == JSONStringKeys || f == JSONStrictStringKeys
}

// A CoercePolicy decides, by response status, whether a structured
// output format is decoded or left as a string.
type CoercePolicy string

const (
	// CoerceUnexceptional decodes only when the response status is
	// unexceptional. It is the zero value.
	CoerceUnexceptional CoercePolicy = ""
	// CoerceAlways always decodes.
	CoerceAlways CoercePolicy = "always"
	// CoerceExceptional decodes only when the response status is not
	// unexceptional.
	CoerceExceptional CoercePolicy = "exceptional"
)

// Allows reports whether a response with the given status should be
// decoded under policy p.
func (p CoercePolicy) Allows(status int) bool {
	switch p {
	case CoerceAlways:
		return true
	case CoerceExceptional:
		return !Unexceptional(status)
	default:
		return Unexceptional(status)
	}
}

// Unexceptional reports whether status is one of the status codes
// treated as successful enough not to raise an error: 200 to 207, 300
// to 303, and 307.
func Unexceptional(status int) bool {
	switch {
	case status >= 200 && status <= 207:
		return true
	case status >= 300 && status <= 303:
		return true
	case status == 307:
		return true
	default:
		return false
	}
}
