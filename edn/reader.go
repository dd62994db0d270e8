// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package edn

import (
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Read reads the first form in data. Anything after the first form is
// ignored, as a Lisp read-string would.
func Read(data []byte) (interface{}, error) {
	r := &reader{src: data}
	for {
		v, err := r.form()
		if err != nil || v != discarded {
			return v, err
		}
	}
}

// ReadAll reads every form in data.
func ReadAll(data []byte) ([]interface{}, error) {
	r := &reader{src: data}
	var forms []interface{}
	for {
		r.skipSpace()
		if r.eof() {
			return forms, nil
		}
		v, err := r.form()
		if err != nil {
			return nil, err
		}
		if v == discarded {
			continue
		}
		forms = append(forms, v)
	}
}

type discard struct{}

var discarded = &discard{}

type reader struct {
	src []byte
	pos int
}

func (r *reader) eof() bool {
	return r.pos >= len(r.src)
}

func (r *reader) errorf(msg string) error {
	return &ParseError{Offset: r.pos, Msg: msg}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == ','
}

func isDelim(c byte) bool {
	return isSpace(c) || strings.IndexByte("()[]{}\";", c) >= 0
}

func (r *reader) skipSpace() {
	for !r.eof() {
		c := r.src[r.pos]
		switch {
		case isSpace(c):
			r.pos++
		case c == ';':
			for !r.eof() && r.src[r.pos] != '\n' {
				r.pos++
			}
		default:
			return
		}
	}
}

// form reads one form. It returns discarded for a #_ form at the top of
// a sequence so callers can skip it.
func (r *reader) form() (interface{}, error) {
	r.skipSpace()
	if r.eof() {
		return nil, r.errorf("unexpected end of input")
	}
	c := r.src[r.pos]
	switch c {
	case '(':
		r.pos++
		items, err := r.seq(')')
		if err != nil {
			return nil, err
		}
		return List(items), nil
	case '[':
		r.pos++
		items, err := r.seq(']')
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []interface{}{}
		}
		return items, nil
	case '{':
		r.pos++
		return r.mapForm()
	case ')', ']', '}':
		return nil, r.errorf("unmatched delimiter " + strconv.QuoteRune(rune(c)))
	case '"':
		return r.str()
	case '\\':
		return r.char()
	case '#':
		return r.dispatch()
	case '\'', '`', '~', '@', '^':
		return nil, r.errorf("reader macro " + strconv.QuoteRune(rune(c)) + " is not allowed")
	case ':':
		tok := r.token()
		if len(tok) < 2 || strings.HasPrefix(tok, "::") {
			return nil, r.errorf("invalid keyword " + strconv.Quote(tok))
		}
		return Keyword(tok[1:]), nil
	}

	start := r.pos
	tok := r.token()
	if tok == "" {
		return nil, r.errorf("unexpected character " + strconv.QuoteRune(rune(c)))
	}
	if startsNumber(tok) {
		v, err := number(tok)
		if err != nil {
			return nil, &ParseError{Offset: start, Msg: err.Error()}
		}
		return v, nil
	}
	switch tok {
	case "nil":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if !validSymbol(tok) {
		return nil, &ParseError{Offset: start, Msg: "invalid symbol " + strconv.Quote(tok)}
	}
	return Symbol(tok), nil
}

func (r *reader) token() string {
	start := r.pos
	for !r.eof() && !isDelim(r.src[r.pos]) {
		r.pos++
	}
	return string(r.src[start:r.pos])
}

func (r *reader) seq(end byte) ([]interface{}, error) {
	var items []interface{}
	for {
		r.skipSpace()
		if r.eof() {
			return nil, r.errorf("unexpected end of input, expected " + strconv.QuoteRune(rune(end)))
		}
		if r.src[r.pos] == end {
			r.pos++
			return items, nil
		}
		v, err := r.form()
		if err != nil {
			return nil, err
		}
		if v == discarded {
			continue
		}
		items = append(items, v)
	}
}

func (r *reader) mapForm() (interface{}, error) {
	start := r.pos
	items, err := r.seq('}')
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, &ParseError{Offset: start, Msg: "map literal must contain an even number of forms"}
	}
	m := make(map[interface{}]interface{}, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		if !hashable(items[i]) {
			return nil, &ParseError{Offset: start, Msg: "unhashable map key"}
		}
		if _, dup := m[items[i]]; dup {
			return nil, &ParseError{Offset: start, Msg: "duplicate map key"}
		}
		m[items[i]] = items[i+1]
	}
	return m, nil
}

func (r *reader) dispatch() (interface{}, error) {
	r.pos++
	if r.eof() {
		return nil, r.errorf("unexpected end of input after '#'")
	}
	switch c := r.src[r.pos]; c {
	case '{':
		start := r.pos
		r.pos++
		items, err := r.seq('}')
		if err != nil {
			return nil, err
		}
		s := make(Set, len(items))
		for _, v := range items {
			if !hashable(v) {
				return nil, &ParseError{Offset: start, Msg: "unhashable set element"}
			}
			if _, dup := s[v]; dup {
				return nil, &ParseError{Offset: start, Msg: "duplicate set element"}
			}
			s[v] = struct{}{}
		}
		return s, nil
	case '_':
		r.pos++
		if _, err := r.form(); err != nil {
			return nil, err
		}
		return discarded, nil
	case '=':
		return nil, r.errorf("read-time evaluation is not allowed")
	case '(', '\'', '"', '^', '?', '!', '#', ':':
		return nil, r.errorf("dispatch macro #" + string(c) + " is not allowed")
	}

	start := r.pos
	tag := r.token()
	if tag == "" {
		return nil, r.errorf("invalid dispatch macro")
	}
	v, err := r.form()
	if err != nil {
		return nil, err
	}
	s, isString := v.(string)
	switch tag {
	case "inst":
		if !isString {
			return nil, &ParseError{Offset: start, Msg: "#inst requires a string"}
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, &ParseError{Offset: start, Msg: "invalid #inst " + strconv.Quote(s)}
		}
		return t, nil
	case "uuid":
		if !isString {
			return nil, &ParseError{Offset: start, Msg: "#uuid requires a string"}
		}
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, &ParseError{Offset: start, Msg: "invalid #uuid " + strconv.Quote(s)}
		}
		return u, nil
	default:
		return nil, &ParseError{Offset: start, Msg: "unsupported tag #" + tag}
	}
}

func (r *reader) str() (interface{}, error) {
	start := r.pos
	r.pos++
	var b strings.Builder
	for {
		if r.eof() {
			return nil, &ParseError{Offset: start, Msg: "unterminated string"}
		}
		c := r.src[r.pos]
		r.pos++
		switch c {
		case '"':
			return b.String(), nil
		case '\\':
			if r.eof() {
				return nil, &ParseError{Offset: start, Msg: "unterminated string"}
			}
			e := r.src[r.pos]
			r.pos++
			switch e {
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'n':
				b.WriteByte('\n')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '\\', '"':
				b.WriteByte(e)
			case 'u':
				if r.pos+4 > len(r.src) {
					return nil, r.errorf("invalid unicode escape")
				}
				n, err := strconv.ParseUint(string(r.src[r.pos:r.pos+4]), 16, 32)
				if err != nil {
					return nil, r.errorf("invalid unicode escape")
				}
				r.pos += 4
				b.WriteRune(rune(n))
			default:
				return nil, r.errorf("invalid string escape \\" + string(e))
			}
		default:
			b.WriteByte(c)
		}
	}
}

var namedChars = map[string]Char{
	"newline":   '\n',
	"space":     ' ',
	"tab":       '\t',
	"return":    '\r',
	"formfeed":  '\f',
	"backspace": '\b',
}

func (r *reader) char() (interface{}, error) {
	start := r.pos
	r.pos++
	if r.eof() {
		return nil, r.errorf("unexpected end of input in character")
	}
	// The first rune is always part of the literal, even a delimiter.
	_, size := utf8.DecodeRune(r.src[r.pos:])
	r.pos += size
	for !r.eof() && !isDelim(r.src[r.pos]) {
		r.pos++
	}
	tok := string(r.src[start+1 : r.pos])
	if utf8.RuneCountInString(tok) == 1 {
		c, _ := utf8.DecodeRuneInString(tok)
		return Char(c), nil
	}
	if c, ok := namedChars[tok]; ok {
		return c, nil
	}
	if len(tok) == 5 && tok[0] == 'u' {
		if n, err := strconv.ParseUint(tok[1:], 16, 32); err == nil {
			return Char(n), nil
		}
	}
	return nil, &ParseError{Offset: start, Msg: "invalid character literal \\" + tok}
}

func startsNumber(tok string) bool {
	c := tok[0]
	if c >= '0' && c <= '9' {
		return true
	}
	return (c == '+' || c == '-') && len(tok) > 1 && tok[1] >= '0' && tok[1] <= '9'
}

type numberError string

func (e numberError) Error() string { return string(e) }

func number(tok string) (interface{}, error) {
	invalid := numberError("invalid number " + strconv.Quote(tok))
	switch {
	case strings.HasSuffix(tok, "N"):
		n, ok := new(big.Int).SetString(strings.TrimPrefix(tok[:len(tok)-1], "+"), 10)
		if !ok {
			return nil, invalid
		}
		return n, nil
	case strings.HasSuffix(tok, "M"):
		f, ok := new(big.Float).SetString(tok[:len(tok)-1])
		if !ok {
			return nil, invalid
		}
		return f, nil
	case strings.IndexByte(tok, '/') >= 0:
		q, ok := new(big.Rat).SetString(strings.TrimPrefix(tok, "+"))
		if !ok {
			return nil, invalid
		}
		return q, nil
	case strings.ContainsAny(tok, ".eE"):
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, invalid
		}
		return f, nil
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err == nil {
		return n, nil
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		if b, ok := new(big.Int).SetString(strings.TrimPrefix(tok, "+"), 10); ok {
			return b, nil
		}
	}
	return nil, invalid
}

func validSymbol(tok string) bool {
	if tok == "/" {
		return true
	}
	if strings.HasPrefix(tok, "/") || strings.HasSuffix(tok, "/") || strings.Count(tok, "/") > 1 {
		return false
	}
	for _, c := range tok {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			continue
		}
		if !strings.ContainsRune(".*+!-_?$%&=<>/'#:", c) {
			return false
		}
	}
	return true
}

func hashable(v interface{}) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}
