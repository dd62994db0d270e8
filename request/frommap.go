// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// FromMap builds a Request from a generic map whose keys are the
// hyphenated option names, for example "url", "method", "headers",
// "query-params", "follow-redirects" and "max-redirects".
//
// Conversion is lenient: numbers and booleans given as strings are
// converted, a single header value becomes a one-element list, timeouts
// may be duration strings ("5s") or integer milliseconds, and
// "basic-auth" may be a "user:password" string, a two-element list, or
// a map with username and password keys. Unrecognized keys are ignored.
func FromMap(m map[string]interface{}) (*Request, error) {
	r := &Request{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			millisecondsHook,
			mapstructure.StringToTimeDurationHookFunc(),
			credentialsHook,
		),
		WeaklyTypedInput: true,
		Result:           r,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err = dec.Decode(m); err != nil {
		return nil, fmt.Errorf("reqchain/request: %w", err)
	}
	if r.Header != nil {
		r.Header.Canonicalize()
	}
	return r, nil
}

var (
	durationType    = reflect.TypeOf(time.Duration(0))
	credentialsType = reflect.TypeOf(Credentials{})
)

func millisecondsHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != durationType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(reflect.ValueOf(data).Int()) * time.Millisecond, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(reflect.ValueOf(data).Float() * float64(time.Millisecond)), nil
	}
	return data, nil
}

func credentialsHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != credentialsType {
		return data, nil
	}
	switch x := data.(type) {
	case string:
		i := strings.IndexByte(x, ':')
		if i < 0 {
			return Credentials{Username: x}, nil
		}
		return Credentials{Username: x[:i], Password: x[i+1:]}, nil
	case []string:
		return pairCredentials(len(x), func(i int) interface{} { return x[i] })
	case []interface{}:
		return pairCredentials(len(x), func(i int) interface{} { return x[i] })
	}
	return data, nil
}

func pairCredentials(n int, at func(int) interface{}) (interface{}, error) {
	if n != 2 {
		return nil, fmt.Errorf("basic-auth must have 2 elements, not %d", n)
	}
	return Credentials{Username: fmt.Sprint(at(0)), Password: fmt.Sprint(at(1))}, nil
}
