// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package codec provides the byte and string encoding utilities used by
the request pipeline: form URL encoding, Base64, gzip, zlib deflate,
zstd, and character set conversion.

All functions are pure. They allocate their own buffers and never
close or retain caller resources, except the streaming readers, which
take ownership of the reader they wrap.
*/
package codec
