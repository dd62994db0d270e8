// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package coerce

import (
	"bytes"

	"github.com/gogama/reqchain/edn"
	"github.com/gogama/reqchain/request"
	jsoniter "github.com/json-iterator/go"
)

// A JSONCodec encodes and decodes JSON. It is injected into a Registry
// so callers can substitute their own implementation.
type JSONCodec interface {
	// Marshal encodes v.
	Marshal(v interface{}) ([]byte, error)
	// Unmarshal decodes data, which must hold exactly one JSON value.
	Unmarshal(data []byte, v interface{}) error
	// DecodeFirst decodes the first JSON value in data and ignores
	// anything after it.
	DecodeFirst(data []byte, v interface{}) error
}

type jsoniterCodec struct {
	api jsoniter.API
}

// Jsoniter returns a JSONCodec backed by a json-iterator configuration.
func Jsoniter(api jsoniter.API) JSONCodec {
	return jsoniterCodec{api: api}
}

// DefaultJSON is the JSONCodec used when none is injected. It behaves
// like encoding/json.
var DefaultJSON = Jsoniter(jsoniter.ConfigCompatibleWithStandardLibrary)

func (c jsoniterCodec) Marshal(v interface{}) ([]byte, error) {
	return c.api.Marshal(v)
}

func (c jsoniterCodec) Unmarshal(data []byte, v interface{}) error {
	return c.api.Unmarshal(data, v)
}

func (c jsoniterCodec) DecodeFirst(data []byte, v interface{}) error {
	return c.api.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// JSONWithOpts returns a JSONCodec which encodes according to opts. A
// nil opts returns DefaultJSON.
func JSONWithOpts(opts *request.JSONOpts) JSONCodec {
	if opts == nil {
		return DefaultJSON
	}
	return Jsoniter(jsoniter.Config{
		EscapeHTML:             opts.EscapeHTML,
		IndentionStep:          opts.Indent,
		SortMapKeys:            opts.SortMapKeys,
		ValidateJsonRawMessage: true,
	}.Froze())
}

// Keywordize returns v with the keys of every JSON object converted to
// edn.Keyword, recursing into arrays and nested objects.
func Keywordize(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		m := make(map[edn.Keyword]interface{}, len(x))
		for k, e := range x {
			m[edn.Keyword(k)] = Keywordize(e)
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = Keywordize(e)
		}
		return out
	default:
		return v
	}
}
