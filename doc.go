// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package reqchain provides an HTTP client built as a chain of middleware
around a minimal transport. Each middleware handles one concern:
redirects, decompression, cookies, authentication, body coercion,
exceptional statuses and so on.

Create a Client to begin making requests.

	client := &reqchain.Client{}
	resp, err := client.Get("https://www.example.com")
	...
	resp, err := client.Post("https://www.example.com/upload",
		request.WithContentType("json", ""),
		request.WithFormParams(map[string]interface{}{"id": 123}),
		request.WithAs(request.JSON))
	...

Errors are typed. A response whose status is not in the unexceptional
set produces a *pipeline.HTTPStatusError unless the request turns
exceptions off:

	resp, err := client.Get(u, request.WithThrowExceptions(false))

For control over how requests reach the network, use a custom
transport from package transport:

	client := &reqchain.Client{
		Transport: transport.NewHTTP(transport.Options{
			ConnectTimeout: 2 * time.Second,
			SocketTimeout:  10 * time.Second,
			MaxTotal:       50,
		}),
	}

To keep cookies across requests, give the client a cookie store:

	client := &reqchain.Client{CookieStore: cookie.NewJar()}

The middleware list is data. To retry failed exchanges, insert the
retry middleware and set a retry policy from package retry:

	p := pipeline.Default.InsertBefore(pipeline.InputCoercion, pipeline.Retry)
	client := &reqchain.Client{
		Pipeline:      &p,
		RetryPolicy:   retry.DefaultPolicy,
		TimeoutPolicy: timeout.Adaptive(2*time.Second, 5*time.Second),
	}

To hook into each exchange with the transport, install a handler into
the appropriate handler chain:

	handlers := &reqchain.HandlerGroup{}
	handlers.PushBack(reqchain.BeforeAttempt, reqchain.HandlerFunc(
		func(_ reqchain.Event, e *request.Execution) {
			log.Printf("Hop %d attempt %d to %s", e.Hop, e.Attempt, e.Request.Location())
		}),
	)
	client := &reqchain.Client{
		Handlers: handlers,
	}

LogEvents returns a handler which traces every event to a logrus
logger:

	for _, evt := range reqchain.Events() {
		handlers.PushBack(evt, reqchain.LogEvents(logger))
	}

Client-wide defaults can be loaded from a file and the environment with
package config.

Package reqchain provides the Doer interface, a combined Executor
interface with one method per verb, and utility functions which issue
each verb through any Doer (Get, Head, Post, Put, Delete, Options,
Patch, Copy, Move and Send).
*/
package reqchain
