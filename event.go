// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqchain

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Client to observe or adjust
// requests as they pass through the pipeline.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// execution of a request starts.
	//
	// When Client fires BeforeExecutionStart, the execution's request
	// field holds the client's copy of the caller's request, with the
	// client defaults applied, and no other field except ID is set.
	BeforeExecutionStart Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// exchange with the transport: once per redirect hop, and once per
	// retry when a retry middleware is installed.
	//
	// When Client fires BeforeAttempt, the execution's request field
	// is set to the fully shaped request that WILL BE handed to the
	// transport after all BeforeAttempt handlers have finished, and
	// its Hop and Attempt fields identify the exchange.
	//
	// BeforeAttempt handlers may replace the execution's request,
	// changing what is sent. They should Clone it rather than modify
	// it in place, as its Header may be shared with outer middleware.
	BeforeAttempt
	// AfterAttemptTimeout identifies the event that occurs after an
	// exchange with the transport failed because of a timeout.
	//
	// When Client fires AfterAttemptTimeout, the execution's error
	// field is set to the timeout error and its attempt timeout counter
	// has been incremented.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after every
	// exchange with the transport, whether it succeeded or not.
	//
	// When Client fires AfterAttempt, exactly one of the execution's
	// response and error fields is non-nil. The response is raw: its
	// Body is the transport stream and its headers have not been
	// processed by any middleware. Handlers may replace the response or
	// error, and what they leave is passed back up the pipeline.
	AfterAttempt
	// AfterExecutionEnd identifies the event that occurs after the
	// execution ends.
	//
	// When Client fires AfterExecutionEnd, the execution's response
	// and error fields hold the final result returned to the caller,
	// and its end time is set.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in a
// request execution by Client, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		AfterAttemptTimeout,
		AfterAttempt,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
