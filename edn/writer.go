// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package edn

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Marshal writes v as EDN text. Map entries and set elements are written
// in the order of their printed keys so output is deterministic. Values
// of types with no EDN representation, such as channels, functions and
// structs, produce an error.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := write(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func write(buf *bytes.Buffer, v interface{}) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("nil")
	case bool:
		buf.WriteString(strconv.FormatBool(x))
	case string:
		writeString(buf, x)
	case Keyword:
		buf.WriteString(x.String())
	case Symbol:
		buf.WriteString(string(x))
	case Char:
		writeChar(buf, x)
	case float32:
		return writeFloat(buf, float64(x))
	case float64:
		return writeFloat(buf, x)
	case *big.Int:
		buf.WriteString(x.String())
		buf.WriteByte('N')
	case *big.Float:
		buf.WriteString(x.Text('g', -1))
		buf.WriteByte('M')
	case *big.Rat:
		buf.WriteString(x.RatString())
	case time.Time:
		buf.WriteString("#inst ")
		writeString(buf, x.UTC().Format(time.RFC3339Nano))
	case uuid.UUID:
		buf.WriteString("#uuid ")
		writeString(buf, x.String())
	case List:
		return writeSeq(buf, '(', ')', []interface{}(x))
	case []interface{}:
		return writeSeq(buf, '[', ']', x)
	case Set:
		elems := make([]interface{}, 0, len(x))
		for e := range x {
			elems = append(elems, e)
		}
		buf.WriteByte('#')
		return writeSorted(buf, '{', '}', elems, nil)
	case map[interface{}]interface{}:
		keys := make([]interface{}, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		return writeSorted(buf, '{', '}', keys, func(k interface{}) interface{} { return x[k] })
	default:
		return writeReflect(buf, v)
	}
	return nil
}

func writeReflect(buf *bytes.Buffer, v interface{}) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.String:
		writeString(buf, rv.String())
	case reflect.Slice, reflect.Array:
		items := make([]interface{}, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return writeSeq(buf, '[', ']', items)
	case reflect.Map:
		keys := make([]interface{}, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.Interface())
		}
		return writeSorted(buf, '{', '}', keys, func(k interface{}) interface{} {
			return rv.MapIndex(reflect.ValueOf(k)).Interface()
		})
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			buf.WriteString("nil")
			return nil
		}
		return write(buf, rv.Elem().Interface())
	default:
		return fmt.Errorf("reqchain/edn: cannot marshal %T", v)
	}
	return nil
}

func writeSeq(buf *bytes.Buffer, open, close byte, items []interface{}) error {
	buf.WriteByte(open)
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(' ')
		}
		if err := write(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(close)
	return nil
}

func writeSorted(buf *bytes.Buffer, open, close byte, keys []interface{}, value func(interface{}) interface{}) error {
	printed := make([]string, len(keys))
	order := make([]int, len(keys))
	for i, k := range keys {
		b, err := Marshal(k)
		if err != nil {
			return err
		}
		printed[i] = string(b)
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return printed[order[a]] < printed[order[b]] })

	buf.WriteByte(open)
	for n, i := range order {
		if n > 0 {
			if value != nil {
				buf.WriteString(", ")
			} else {
				buf.WriteByte(' ')
			}
		}
		buf.WriteString(printed[i])
		if value != nil {
			buf.WriteByte(' ')
			if err := write(buf, value(keys[i])); err != nil {
				return err
			}
		}
	}
	buf.WriteByte(close)
	return nil
}

func writeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("reqchain/edn: cannot marshal %v", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !bytes.ContainsAny([]byte(s), ".eE") {
		s += ".0"
	}
	buf.WriteString(s)
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, c := range s {
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\t':
			buf.WriteString(`\t`)
		case '\r':
			buf.WriteString(`\r`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			buf.WriteRune(c)
		}
	}
	buf.WriteByte('"')
}

func writeChar(buf *bytes.Buffer, c Char) {
	for name, named := range namedChars {
		if named == c {
			buf.WriteString(`\` + name)
			return
		}
	}
	buf.WriteByte('\\')
	buf.WriteRune(rune(c))
}
