// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core data types Request, Response and
Execution, which flow through the reqchain middleware pipeline.

A Request describes a logical HTTP request: its method and URL, headers,
body, and the option fields which steer the built-in middleware, such as
FollowRedirects, As and ThrowExceptions. Build one with New and
functional options:

	r := request.New("GET", "https://example.com/things",
		request.WithQueryParams(map[string]interface{}{"page": 2}),
		request.WithAs(request.JSON))

or from a generic map with hyphenated keys:

	r, err := request.FromMap(map[string]interface{}{
		"method":           "GET",
		"url":              "https://example.com/things",
		"follow-redirects": false,
	})

As a Request moves inward through the pipeline, middleware fill in the
target fields from the URL, shape the Header and turn the Body into an
Entity ready for the transport. Every middleware works on a copy, so
the caller's Request is left as it was.

A Response carries the status, lower-cased Header and Body, plus the
fields added by middleware on the way out: TraceRedirects, Cookies,
OrigContentEncoding, Links and RequestTime.

An Execution records the progress of a Request executed by a client:
the current redirect hop, retry attempt, response and error. Event
handlers and retry and timeout policies receive it.
*/
package request
