// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"

	"github.com/gogama/reqchain/edn"
	"github.com/gogama/reqchain/request"
	"github.com/google/go-querystring/query"
)

// ParamsError is returned when query or form parameters are of a type
// which cannot be encoded.
type ParamsError struct {
	Type string
	Err  error
}

func (err *ParamsError) Error() string {
	msg := "reqchain/pipeline: cannot encode params of type " + err.Type
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *ParamsError) Unwrap() error {
	return err.Err
}

// EncodeParams converts params to url.Values. Supported types are
// url.Values, maps with string or edn.Keyword keys, and structs (or
// pointers to structs) with "url" field tags as understood by
// github.com/google/go-querystring. Slice values produce one pair per
// element. Nested maps should be flattened with FlattenParams first.
func EncodeParams(params interface{}) (url.Values, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return p, nil
	case map[string][]string:
		return url.Values(p), nil
	case map[string]string:
		v := make(url.Values, len(p))
		for k, s := range p {
			v.Set(k, s)
		}
		return v, nil
	case map[string]interface{}:
		v := make(url.Values, len(p))
		for k, x := range p {
			addParam(v, k, x)
		}
		return v, nil
	case map[edn.Keyword]interface{}:
		v := make(url.Values, len(p))
		for k, x := range p {
			addParam(v, string(k), x)
		}
		return v, nil
	}
	rv := reflect.ValueOf(params)
	for rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		v, err := query.Values(params)
		if err != nil {
			return nil, &ParamsError{Type: fmt.Sprintf("%T", params), Err: err}
		}
		return v, nil
	}
	return nil, &ParamsError{Type: fmt.Sprintf("%T", params)}
}

func addParam(v url.Values, k string, x interface{}) {
	switch y := x.(type) {
	case nil:
		v.Add(k, "")
	case string:
		v.Add(k, y)
	case []string:
		for _, s := range y {
			v.Add(k, s)
		}
	case []interface{}:
		for _, e := range y {
			addParam(v, k, e)
		}
	case edn.Keyword:
		v.Add(k, string(y))
	case fmt.Stringer:
		v.Add(k, y.String())
	default:
		v.Add(k, fmt.Sprint(y))
	}
}

// FlattenParams rewrites nested map values as bracketed keys, so that
// {"a": {"b": 1, "c": {"d": 2}}} becomes {"a[b]": 1, "a[c][d]": 2}.
// Values which are not maps with string keys are returned unchanged.
func FlattenParams(params interface{}) interface{} {
	var m map[string]interface{}
	switch p := params.(type) {
	case map[string]interface{}:
		m = p
	case map[edn.Keyword]interface{}:
		m = make(map[string]interface{}, len(p))
		for k, v := range p {
			m[string(k)] = v
		}
	default:
		return params
	}
	if !nested(m) {
		return params
	}
	out := make(map[string]interface{}, len(m))
	flatten(out, "", m)
	return out
}

func nested(m map[string]interface{}) bool {
	for _, v := range m {
		switch v.(type) {
		case map[string]interface{}, map[edn.Keyword]interface{}:
			return true
		}
	}
	return false
}

func flatten(out map[string]interface{}, prefix string, m map[string]interface{}) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "[" + k + "]"
		}
		switch v := m[k].(type) {
		case map[string]interface{}:
			flatten(out, key, v)
		case map[edn.Keyword]interface{}:
			sub := make(map[string]interface{}, len(v))
			for kk, vv := range v {
				sub[string(kk)] = vv
			}
			flatten(out, key, sub)
		default:
			out[key] = v
		}
	}
}

// WrapNestedParams flattens nested query parameters, and nested form
// parameters unless the content type is JSON or EDN, which encode
// nested values natively.
func WrapNestedParams(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		if r.QueryParams == nil && r.FormParams == nil {
			return next(r)
		}
		r = r.Clone()
		r.QueryParams = FlattenParams(r.QueryParams)
		if !structuredContentType(r) {
			r.FormParams = FlattenParams(r.FormParams)
		}
		return next(r)
	}
}

// WrapQueryParams encodes Request.QueryParams and appends them to the
// query string.
func WrapQueryParams(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		if r.QueryParams == nil {
			return next(r)
		}
		v, err := EncodeParams(r.QueryParams)
		if err != nil {
			return nil, err
		}
		r = r.Clone()
		r.QueryParams = nil
		if q := v.Encode(); q != "" {
			if r.QueryString != "" {
				r.QueryString += "&" + q
			} else {
				r.QueryString = q
			}
		}
		return next(r)
	}
}
