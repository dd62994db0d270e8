// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gogama/reqchain/codec"
	"github.com/gogama/reqchain/request"
)

// WrapUserInfo turns the user information of the request URL into
// Basic credentials, unless BasicAuth is already set. The user
// information is removed from the target either way.
func WrapUserInfo(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		if r.UserInfo == "" {
			return next(r)
		}
		r = r.Clone()
		if r.BasicAuth == nil {
			r.BasicAuth = parseUserInfo(r.UserInfo)
		}
		r.UserInfo = ""
		return next(r)
	}
}

func parseUserInfo(s string) *request.Credentials {
	user, pass := s, ""
	if i := strings.IndexByte(s, ':'); i >= 0 {
		user, pass = s[:i], s[i+1:]
	}
	if u, err := url.PathUnescape(user); err == nil {
		user = u
	}
	if p, err := url.PathUnescape(pass); err == nil {
		pass = p
	}
	return &request.Credentials{Username: user, Password: pass}
}

// BasicAuthorization returns the value of a Basic Authorization header.
func BasicAuthorization(username, password string) string {
	return "Basic " + codec.Base64Encode([]byte(username+":"+password))
}

// WrapBasicAuth sets a Basic Authorization header from
// Request.BasicAuth.
func WrapBasicAuth(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		if r.BasicAuth == nil {
			return next(r)
		}
		r = clone(r)
		r.Header.Set("authorization", BasicAuthorization(r.BasicAuth.Username, r.BasicAuth.Password))
		r.BasicAuth = nil
		return next(r)
	}
}

// TokenError is returned when a request's oauth2.TokenSource fails.
type TokenError struct {
	Err error
}

func (err *TokenError) Error() string {
	return "reqchain/pipeline: oauth token: " + err.Err.Error()
}

func (err *TokenError) Unwrap() error {
	return err.Err
}

// WrapOAuth sets a Bearer Authorization header from Request.OAuthToken
// or, if that is empty, from Request.TokenSource.
func WrapOAuth(next Handler) Handler {
	return func(r *request.Request) (*request.Response, error) {
		var auth string
		switch {
		case r.OAuthToken != "":
			auth = "Bearer " + r.OAuthToken
		case r.TokenSource != nil:
			tok, err := r.TokenSource.Token()
			if err != nil {
				return nil, &TokenError{Err: err}
			}
			if !tok.Valid() {
				return nil, &TokenError{Err: errors.New("invalid token")}
			}
			auth = tok.Type() + " " + tok.AccessToken
		default:
			return next(r)
		}
		r = clone(r)
		r.Header.Set("authorization", auth)
		r.OAuthToken = ""
		r.TokenSource = nil
		return next(r)
	}
}
