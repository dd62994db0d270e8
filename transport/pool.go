// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

const (
	// DefaultMaxTotal is the default bound on concurrent exchanges
	// across all routes.
	DefaultMaxTotal = 20
	// DefaultMaxPerRoute is the default bound on concurrent exchanges
	// with one scheme, host and port.
	DefaultMaxPerRoute = 10
)

// A Pool bounds the number of concurrent exchanges, in total and per
// route. An exchange holds its slot from before the request is sent
// until the response body is closed.
type Pool struct {
	maxPerRoute int64
	total       *semaphore.Weighted

	mu     sync.Mutex
	routes map[string]*semaphore.Weighted
}

// NewPool returns a Pool with the given bounds. Non-positive bounds
// take the defaults.
func NewPool(maxTotal, maxPerRoute int) *Pool {
	if maxTotal <= 0 {
		maxTotal = DefaultMaxTotal
	}
	if maxPerRoute <= 0 {
		maxPerRoute = DefaultMaxPerRoute
	}
	return &Pool{
		maxPerRoute: int64(maxPerRoute),
		total:       semaphore.NewWeighted(int64(maxTotal)),
		routes:      make(map[string]*semaphore.Weighted),
	}
}

func (p *Pool) route(key string) *semaphore.Weighted {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.routes[key]
	if s == nil {
		s = semaphore.NewWeighted(p.maxPerRoute)
		p.routes[key] = s
	}
	return s
}

// Acquire waits for a slot on route until ctx is done. On success it
// returns a function which releases the slot; calling it more than once
// has no further effect.
func (p *Pool) Acquire(ctx context.Context, route string) (func(), error) {
	r := p.route(route)
	if err := r.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := p.total.Acquire(ctx, 1); err != nil {
		r.Release(1)
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			p.total.Release(1)
			r.Release(1)
		})
	}, nil
}
