// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package coerce

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/gogama/reqchain/codec"
	"github.com/gogama/reqchain/request"
)

// A File names a file whose contents are streamed as the request body.
type File string

// Entity converts a request body into a transport entity. The
// conversion is:
//
// • nil produces a nil Entity and no error.
//
// • A string is encoded in charset, or UTF-8 if charset is empty. An
// unsupported charset produces a *codec.EncodingError.
//
// • A []byte is used as is.
//
// • A *bytes.Buffer, *bytes.Reader or *strings.Reader has a known
// length.
//
// • An *os.File, or a File which is opened, is streamed with the length
// reported by Stat.
//
// • Any other io.Reader is streamed with length if it is positive, or
// with an unknown length (-1) otherwise. If it is an io.ReadCloser, the
// transport closes it.
//
// • Any other type produces an *UnsupportedBodyTypeError.
func Entity(body interface{}, charset string, length int64) (*request.Entity, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		b, err := codec.EncodeString(x, charset)
		if err != nil {
			return nil, err
		}
		return bytesEntity(b), nil
	case []byte:
		return bytesEntity(x), nil
	case *bytes.Buffer:
		return &request.Entity{Body: ioutil.NopCloser(x), Length: int64(x.Len())}, nil
	case *bytes.Reader:
		return &request.Entity{Body: ioutil.NopCloser(x), Length: int64(x.Len())}, nil
	case *strings.Reader:
		return &request.Entity{Body: ioutil.NopCloser(x), Length: int64(x.Len())}, nil
	case File:
		f, err := os.Open(string(x))
		if err != nil {
			return nil, err
		}
		e, err := fileEntity(f)
		if err != nil {
			_ = f.Close()
		}
		return e, err
	case *os.File:
		return fileEntity(x)
	case io.ReadCloser:
		return &request.Entity{Body: x, Length: streamLength(length)}, nil
	case io.Reader:
		return &request.Entity{Body: ioutil.NopCloser(x), Length: streamLength(length)}, nil
	default:
		return nil, &UnsupportedBodyTypeError{Type: fmt.Sprintf("%T", body)}
	}
}

func bytesEntity(b []byte) *request.Entity {
	return &request.Entity{Body: ioutil.NopCloser(bytes.NewReader(b)), Length: int64(len(b))}
}

func fileEntity(f *os.File) (*request.Entity, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &request.Entity{Body: f, Length: fi.Size() - offset(f)}, nil
}

func offset(f *os.File) int64 {
	n, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0
	}
	return n
}

func streamLength(length int64) int64 {
	if length > 0 {
		return length
	}
	return -1
}
