// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"io/ioutil"
	"strings"
	"sync"
	"testing"

	"github.com/gogama/reqchain/request"
	"github.com/gogama/reqchain/transport"
	"github.com/stretchr/testify/require"
)

// trackedBody is a response body which records whether it was closed.
type trackedBody struct {
	*strings.Reader
	mu     sync.Mutex
	closed bool
}

func (b *trackedBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *trackedBody) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// exchange is a request as seen by the fake transport.
type exchange struct {
	req      *request.Request
	body     string
	respBody *trackedBody
}

// fake is a transport which answers with a handler function and
// records every exchange.
type fake struct {
	mu        sync.Mutex
	exchanges []exchange
	handle    func(r *request.Request, body string) *request.Response
}

func newFake(handle func(r *request.Request, body string) *request.Response) *fake {
	return &fake{handle: handle}
}

func (f *fake) RoundTrip(r *request.Request) (*request.Response, error) {
	var body string
	if r.Entity != nil {
		b, err := ioutil.ReadAll(r.Entity.Body)
		if err != nil {
			return nil, err
		}
		_ = r.Entity.Body.Close()
		body = string(b)
	}
	resp := f.handle(r, body)
	resp.Request = r
	tb, _ := resp.Body.(*trackedBody)
	f.mu.Lock()
	f.exchanges = append(f.exchanges, exchange{req: r, body: body, respBody: tb})
	f.mu.Unlock()
	return resp, nil
}

func (f *fake) all() []exchange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]exchange(nil), f.exchanges...)
}

func (f *fake) last(t *testing.T) exchange {
	all := f.all()
	require.NotEmpty(t, all)
	return all[len(all)-1]
}

// reply builds a response with a streamed body and header pairs.
func reply(status int, body string, header ...string) *request.Response {
	h := make(request.Header)
	for i := 0; i+1 < len(header); i += 2 {
		h.Add(header[i], header[i+1])
	}
	return &request.Response{
		Status: status,
		Header: h,
		Body:   &trackedBody{Reader: strings.NewReader(body)},
	}
}

func ok(body string, header ...string) func(*request.Request, string) *request.Response {
	return func(*request.Request, string) *request.Response {
		return reply(200, body, header...)
	}
}

func do(t *testing.T, f transport.Transport, r *request.Request) (*request.Response, error) {
	t.Helper()
	return Default.Then(f)(r)
}
