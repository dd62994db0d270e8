// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors returned by a transport as
// transient, meaning a caller retrying the request has some prospect of
// success, or not. Retry policies and metrics bucketing use it.
//
// The package depends only on the standard library. Transport errors
// are recognized by behavior (Timeout and PoolExhausted methods) rather
// than by type, so any transport can take part.
package transient
