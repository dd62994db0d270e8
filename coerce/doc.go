// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package coerce converts request bodies into transport entities and
// raw response bodies into the representation a request asks for.
//
// Input coercion is a closed set of body types; anything else is an
// *UnsupportedBodyTypeError. Output coercion dispatches on the request's
// As format through a Registry, which is populated with the built-in
// formats and may be extended with Register.
package coerce
