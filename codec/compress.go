// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"bytes"
	"io"
	"io/ioutil"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Gzip compresses b using the gzip format.
func Gzip(b []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, _ = w.Write(b)
	_ = w.Close()
	return buf.Bytes()
}

// Gunzip decompresses gzip-framed data. Malformed input produces a
// *DecompressionError.
func Gunzip(b []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, &DecompressionError{Encoding: "gzip", Err: err}
	}
	out, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, &DecompressionError{Encoding: "gzip", Err: err}
	}
	if err = r.Close(); err != nil {
		return nil, &DecompressionError{Encoding: "gzip", Err: err}
	}
	return out, nil
}

// Deflate compresses b using the zlib format (RFC 1950), which is what
// HTTP calls the "deflate" content coding.
func Deflate(b []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write(b)
	_ = w.Close()
	return buf.Bytes()
}

// Inflate decompresses "deflate" content. Zlib-wrapped data is tried
// first; if the zlib header is absent the input is read as a raw
// DEFLATE stream, which some servers send instead.
func Inflate(b []byte) ([]byte, error) {
	if r, err := zlib.NewReader(bytes.NewReader(b)); err == nil {
		out, err := ioutil.ReadAll(r)
		_ = r.Close()
		if err != nil {
			return nil, &DecompressionError{Encoding: "deflate", Err: err}
		}
		return out, nil
	}
	r := flate.NewReader(bytes.NewReader(b))
	defer r.Close()
	out, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, &DecompressionError{Encoding: "deflate", Err: err}
	}
	return out, nil
}

// Zstd compresses b using Zstandard.
func Zstd(b []byte) []byte {
	enc, _ := zstd.NewWriter(nil)
	defer enc.Close()
	return enc.EncodeAll(b, nil)
}

// Unzstd decompresses Zstandard data.
func Unzstd(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, &DecompressionError{Encoding: "zstd", Err: err}
	}
	defer dec.Close()
	out, err := dec.DecodeAll(b, nil)
	if err != nil {
		return nil, &DecompressionError{Encoding: "zstd", Err: err}
	}
	return out, nil
}

// Decompress decompresses b according to the named content coding.
// The second return value is false if the coding is not one Decompress
// understands, in which case b is returned unchanged.
func Decompress(coding string, b []byte) ([]byte, bool, error) {
	switch coding {
	case "gzip", "x-gzip":
		out, err := Gunzip(b)
		return out, true, err
	case "deflate":
		out, err := Inflate(b)
		return out, true, err
	case "zstd":
		out, err := Unzstd(b)
		return out, true, err
	default:
		return b, false, nil
	}
}

// NewReader returns a reader which decompresses the stream r according
// to the named content coding. Closing the returned reader closes r.
// The second return value is false if the coding is not understood, in
// which case r itself is returned.
func NewReader(coding string, r io.ReadCloser) (io.ReadCloser, bool, error) {
	switch coding {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, true, &DecompressionError{Encoding: coding, Err: err}
		}
		return &streamReader{Reader: gz, closers: []io.Closer{gz, r}, coding: coding}, true, nil
	case "deflate":
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, true, &DecompressionError{Encoding: coding, Err: err}
		}
		return &streamReader{Reader: zr, closers: []io.Closer{zr, r}, coding: coding}, true, nil
	case "zstd":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, true, &DecompressionError{Encoding: coding, Err: err}
		}
		return &streamReader{Reader: dec, closers: []io.Closer{closerFunc(dec.Close), r}, coding: coding}, true, nil
	default:
		return r, false, nil
	}
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

type streamReader struct {
	io.Reader
	closers []io.Closer
	coding  string
}

func (s *streamReader) Read(p []byte) (int, error) {
	n, err := s.Reader.Read(p)
	if err != nil && err != io.EOF {
		err = &DecompressionError{Encoding: s.coding, Err: err}
	}
	return n, err
}

func (s *streamReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
