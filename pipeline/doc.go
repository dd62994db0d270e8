// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package pipeline composes middleware around a transport to form the
// request-executing Handler used by reqchain.Client.
//
// A Middleware takes the next Handler and returns a new Handler which
// may change the request on the way in and the response on the way
// out. Chain composes middleware so the first one listed sees the
// request first and the response last.
//
// Every built-in middleware has an ID. A Pipeline is an immutable,
// ordered list of IDs which is turned into a Handler by Build, given an
// Env supplying the collaborators some middleware need (the output
// format registry, retry and timeout policies). Default is the standard
// order:
//
//	unknown-host, request-timing, header-map, method, redirects, url,
//	nested-params, user-info, basic-auth, oauth, query-params, links,
//	exceptions, output-coercion, additional-header-parsing,
//	decompression, cookies, accept, accept-encoding, content-type,
//	form-params, input-coercion
//
// The redirects middleware wraps everything below it, so every redirect
// hop is decompressed, coerced and checked for exceptional statuses
// separately. The exceptions middleware wraps output coercion, so an
// *HTTPStatusError carries the decoded body.
//
// Pipelines can be trimmed, extended, or given custom middleware:
//
//	p := pipeline.Default.
//		InsertBefore(pipeline.InputCoercion, pipeline.Retry).
//		Define("trace", traceMiddleware).
//		InsertBefore(pipeline.Redirects, "trace")
package pipeline
