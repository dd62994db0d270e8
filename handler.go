// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqchain

import (
	"github.com/gogama/reqchain/request"
	"github.com/sirupsen/logrus"
)

// A HandlerGroup holds one chain of handlers per Event. Install it in
// Client.Handlers. A HandlerGroup must not be modified while a Client
// using it is executing requests.
type HandlerGroup struct {
	handlers [][]Handler
}

// PushBack appends h to the chain for evt, so that it runs after the
// handlers already installed.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	g.init(h)
	g.handlers[evt] = append(g.handlers[evt], h)
}

// PushFront prepends h to the chain for evt, so that it runs before the
// handlers already installed.
func (g *HandlerGroup) PushFront(evt Event, h Handler) {
	g.init(h)
	chain := make([]Handler, 0, len(g.handlers[evt])+1)
	g.handlers[evt] = append(append(chain, h), g.handlers[evt]...)
}

// Len returns the number of handlers in the chain for evt.
func (g *HandlerGroup) Len(evt Event) int {
	if int(evt) >= len(g.handlers) {
		return 0
	}
	return len(g.handlers[evt])
}

func (g *HandlerGroup) init(h Handler) {
	if h == nil {
		panic("reqchain: nil handler")
	}

	if g.handlers == nil {
		g.handlers = make([][]Handler, numEvents)
	}
}

func (g *HandlerGroup) run(evt Event, e *request.Execution) {
	i := int(evt)
	if i < len(g.handlers) {
		for _, h := range g.handlers[i] {
			h.Handle(evt, e)
		}
	}
}

// A Handler handles the occurrence of an event during a request
// execution.
type Handler interface {
	Handle(Event, *request.Execution)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as event handlers. If f is a function with appropriate
// signature, then HandlerFunc(f) is a Handler that calls f.
type HandlerFunc func(Event, *request.Execution)

// Handle calls f(evt, e).
func (f HandlerFunc) Handle(evt Event, e *request.Execution) {
	f(evt, e)
}

// LogEvents returns a Handler which logs every event it handles to l at
// debug level. Install it for each of Events() to trace executions.
func LogEvents(l logrus.FieldLogger) Handler {
	return HandlerFunc(func(evt Event, e *request.Execution) {
		fields := logrus.Fields{
			"event":     evt.Name(),
			"execution": e.ID.String(),
			"hop":       e.Hop,
			"attempt":   e.Attempt,
		}
		if e.Response != nil {
			fields["status"] = e.Response.Status
		}
		if e.Err != nil {
			fields["error"] = e.Err.Error()
		}
		l.WithFields(fields).Debug("execution event")
	})
}
