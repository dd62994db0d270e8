// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for the socket timeout of each
// transport attempt made by the retry middleware of package pipeline,
// so that an attempt which timed out can be retried with a longer
// timeout.
package timeout
