// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"bytes"
	"errors"
	"io/ioutil"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGzip(t *testing.T) {
	for _, s := range []string{"", "foofoofoo", string(bytes.Repeat([]byte("abc"), 10000))} {
		out, err := Gunzip(Gzip([]byte(s)))
		require.NoError(t, err)
		assert.Equal(t, s, string(out))
	}

	t.Run("malformed", func(t *testing.T) {
		_, err := Gunzip([]byte("definitely not gzip"))
		var decompressionErr *DecompressionError
		require.True(t, errors.As(err, &decompressionErr))
		assert.Equal(t, "gzip", decompressionErr.Encoding)
		assert.Contains(t, err.Error(), "reqchain/codec: gzip")
	})

	t.Run("truncated", func(t *testing.T) {
		b := Gzip([]byte("foofoofoofoofoo"))
		_, err := Gunzip(b[:len(b)-6])
		var decompressionErr *DecompressionError
		assert.True(t, errors.As(err, &decompressionErr))
	})
}

func TestInflate(t *testing.T) {
	t.Run("zlib", func(t *testing.T) {
		out, err := Inflate(Deflate([]byte("hello deflate")))
		require.NoError(t, err)
		assert.Equal(t, "hello deflate", string(out))
	})

	t.Run("raw", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := flate.NewWriter(&buf, flate.DefaultCompression)
		require.NoError(t, err)
		_, _ = w.Write([]byte("raw deflate stream"))
		require.NoError(t, w.Close())
		out, err := Inflate(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, "raw deflate stream", string(out))
	})
}

func TestZstd(t *testing.T) {
	out, err := Unzstd(Zstd([]byte("zstd zstd zstd")))
	require.NoError(t, err)
	assert.Equal(t, "zstd zstd zstd", string(out))

	_, err = Unzstd([]byte{1, 2, 3, 4})
	var decompressionErr *DecompressionError
	assert.True(t, errors.As(err, &decompressionErr))
}

func TestDecompress(t *testing.T) {
	testCases := []struct {
		coding string
		input  []byte
	}{
		{"gzip", Gzip([]byte("foofoofoo"))},
		{"x-gzip", Gzip([]byte("foofoofoo"))},
		{"deflate", Deflate([]byte("foofoofoo"))},
		{"zstd", Zstd([]byte("foofoofoo"))},
	}
	for _, testCase := range testCases {
		t.Run(testCase.coding, func(t *testing.T) {
			out, ok, err := Decompress(testCase.coding, testCase.input)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "foofoofoo", string(out))
		})
	}

	t.Run("identity", func(t *testing.T) {
		out, ok, err := Decompress("br", []byte("as is"))
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, "as is", string(out))
	})
}

type trackingCloser struct {
	*bytes.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

func TestNewReader(t *testing.T) {
	compressors := map[string]func([]byte) []byte{
		"gzip":    Gzip,
		"deflate": Deflate,
		"zstd":    Zstd,
	}
	for coding, compress := range compressors {
		t.Run(coding, func(t *testing.T) {
			compressed := compress([]byte("streamed"))
			src := &trackingCloser{Reader: bytes.NewReader(compressed)}
			r, ok, err := NewReader(coding, src)
			require.NoError(t, err)
			require.True(t, ok)
			out, err := ioutil.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "streamed", string(out))
			require.NoError(t, r.Close())
			assert.True(t, src.closed)
		})
	}

	t.Run("unknown coding", func(t *testing.T) {
		src := &trackingCloser{Reader: bytes.NewReader([]byte("x"))}
		r, ok, err := NewReader("br", src)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Same(t, src, r)
	})

	t.Run("malformed header", func(t *testing.T) {
		src := &trackingCloser{Reader: bytes.NewReader([]byte("not gzip at all"))}
		_, _, err := NewReader("gzip", src)
		var decompressionErr *DecompressionError
		assert.True(t, errors.As(err, &decompressionErr))
	})
}

func TestCharset(t *testing.T) {
	t.Run("default utf-8", func(t *testing.T) {
		b, err := EncodeString("héllo", "")
		require.NoError(t, err)
		assert.Equal(t, []byte("héllo"), b)
		s, err := DecodeString(b, "UTF-8")
		require.NoError(t, err)
		assert.Equal(t, "héllo", s)
	})

	t.Run("latin1", func(t *testing.T) {
		b, err := EncodeString("héllo", "ISO-8859-1")
		require.NoError(t, err)
		assert.Equal(t, []byte{'h', 0xe9, 'l', 'l', 'o'}, b)
		s, err := DecodeString(b, "latin1")
		require.NoError(t, err)
		assert.Equal(t, "héllo", s)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := EncodeString("x", "no-such-charset")
		var encodingErr *EncodingError
		require.True(t, errors.As(err, &encodingErr))
		assert.Equal(t, "no-such-charset", encodingErr.Charset)
		assert.False(t, SupportedCharset("no-such-charset"))
		assert.True(t, SupportedCharset("utf-16le"))
	})
}

func TestText(t *testing.T) {
	assert.Equal(t, "a+b%26c%3Dd", URLEncode("a b&c=d"))
	s, err := URLDecode("a+b%26c%3Dd")
	require.NoError(t, err)
	assert.Equal(t, "a b&c=d", s)

	long := bytes.Repeat([]byte{0xff}, 100)
	enc := Base64Encode(long)
	assert.NotContains(t, enc, "\n")
	dec, err := Base64Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, long, dec)
	assert.Equal(t, "dXNlcjpwYXNz", Base64Encode([]byte("user:pass")))
}
