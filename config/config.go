// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gogama/reqchain/request"
	"github.com/gogama/reqchain/transport"
	"github.com/spf13/viper"
)

// DefaultEnvPrefix is the environment variable prefix used by
// LoadSettings.
const DefaultEnvPrefix = "REQCHAIN"

// Settings are client-wide defaults. They fill in the request fields a
// caller leaves unset, and configure the default transport and logger.
type Settings struct {
	FollowRedirects bool   `mapstructure:"follow_redirects"`
	MaxRedirects    int    `mapstructure:"max_redirects"`
	ThrowExceptions bool   `mapstructure:"throw_exceptions"`
	DecompressBody  bool   `mapstructure:"decompress_body"`
	DecodeCookies   bool   `mapstructure:"decode_cookies"`
	As              string `mapstructure:"as"`
	Coerce          string `mapstructure:"coerce"`

	Transport TransportSettings `mapstructure:"transport"`
	Logging   LoggingSettings   `mapstructure:"logging"`
}

// TransportSettings configure the default HTTP transport.
type TransportSettings struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	SocketTimeout  time.Duration `mapstructure:"socket_timeout"`
	PoolTimeout    time.Duration `mapstructure:"pool_timeout"`
	MaxTotal       int           `mapstructure:"max_total"`
	MaxPerRoute    int           `mapstructure:"max_per_route"`
}

// LoggingSettings configure the client logger.
type LoggingSettings struct {
	// Level is a logrus level name: trace, debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
}

// Defaults returns the built-in settings, which match the behavior of a
// Request with no options set.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"follow_redirects":          true,
		"max_redirects":             request.DefaultMaxRedirects,
		"throw_exceptions":          true,
		"decompress_body":           true,
		"decode_cookies":            true,
		"as":                        "",
		"coerce":                    "",
		"transport.connect_timeout": "0s",
		"transport.socket_timeout":  "0s",
		"transport.pool_timeout":    "0s",
		"transport.max_total":       transport.DefaultMaxTotal,
		"transport.max_per_route":   transport.DefaultMaxPerRoute,
		"logging.level":             "info",
		"logging.format":            "text",
	}
}

// Loader loads configuration with viper.
type Loader struct {
	v      *viper.Viper
	prefix string
}

// NewLoader returns a Loader reading environment variables with the
// given prefix. An empty prefix reads unprefixed variables.
func NewLoader(envPrefix string) *Loader {
	return &Loader{
		v:      viper.New(),
		prefix: envPrefix,
	}
}

// SetDefaults sets default values. It must be called before Load.
func (l *Loader) SetDefaults(defaults map[string]interface{}) {
	for key, value := range defaults {
		l.v.SetDefault(key, value)
	}
}

// Load reads cfgFile, or the first reqchain.yaml found in the search
// path if cfgFile is empty, then the environment, and decodes the
// result into target. A missing file is only an error when cfgFile
// names it.
func (l *Loader) Load(cfgFile string, target interface{}) error {
	if cfgFile != "" {
		l.v.SetConfigFile(cfgFile)
	} else {
		l.v.SetConfigName("reqchain")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("$HOME/.reqchain")
		l.v.AddConfigPath("/etc/reqchain")
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return fmt.Errorf("reqchain/config: reading config file: %w", err)
		}
	}

	if l.prefix != "" {
		l.v.SetEnvPrefix(l.prefix)
	}
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if err := l.v.Unmarshal(target); err != nil {
		return fmt.Errorf("reqchain/config: decoding config: %w", err)
	}
	return nil
}

// LoadSettings loads Settings with the built-in defaults and
// DefaultEnvPrefix, and validates them.
func LoadSettings(cfgFile string) (*Settings, error) {
	loader := NewLoader(DefaultEnvPrefix)
	loader.SetDefaults(Defaults())

	s := &Settings{}
	if err := loader.Load(cfgFile, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("reqchain/config: invalid configuration: %w", err)
	}
	return s, nil
}

// Validate checks that s holds usable values.
func (s *Settings) Validate() error {
	if s.MaxRedirects < 0 {
		return fmt.Errorf("negative max_redirects: %d", s.MaxRedirects)
	}
	if _, err := s.coercePolicy(); err != nil {
		return err
	}
	t := s.Transport
	if t.ConnectTimeout < 0 || t.SocketTimeout < 0 || t.PoolTimeout < 0 {
		return fmt.Errorf("negative transport timeout")
	}
	if t.MaxTotal < 0 || t.MaxPerRoute < 0 {
		return fmt.Errorf("negative transport pool bound")
	}
	switch s.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown logging format %q", s.Logging.Format)
	}
	return nil
}

func (s *Settings) coercePolicy() (request.CoercePolicy, error) {
	switch strings.TrimPrefix(s.Coerce, ":") {
	case "", "unexceptional":
		return request.CoerceUnexceptional, nil
	case "always":
		return request.CoerceAlways, nil
	case "exceptional":
		return request.CoerceExceptional, nil
	default:
		return "", fmt.Errorf("unknown coerce policy %q", s.Coerce)
	}
}

// Apply fills in the fields of r which the caller left unset.
func (s *Settings) Apply(r *request.Request) {
	if r.FollowRedirects == nil {
		r.FollowRedirects = request.Bool(s.FollowRedirects)
	}
	if r.MaxRedirects == nil {
		r.MaxRedirects = request.Int(s.MaxRedirects)
	}
	if r.ThrowExceptions == nil {
		r.ThrowExceptions = request.Bool(s.ThrowExceptions)
	}
	if r.DecompressBody == nil {
		r.DecompressBody = request.Bool(s.DecompressBody)
	}
	if r.DecodeCookies == nil {
		r.DecodeCookies = request.Bool(s.DecodeCookies)
	}
	if r.As == request.String {
		if as := strings.TrimPrefix(s.As, ":"); as != "string" {
			r.As = request.Format(as)
		}
	}
	if r.Coerce == request.CoerceUnexceptional {
		if p, err := s.coercePolicy(); err == nil {
			r.Coerce = p
		}
	}
	if r.ConnectTimeout == 0 {
		r.ConnectTimeout = s.Transport.ConnectTimeout
	}
	if r.SocketTimeout == 0 {
		r.SocketTimeout = s.Transport.SocketTimeout
	}
}

// TransportOptions returns the options for transport.NewHTTP.
func (s *Settings) TransportOptions() transport.Options {
	return transport.Options{
		ConnectTimeout: s.Transport.ConnectTimeout,
		SocketTimeout:  s.Transport.SocketTimeout,
		PoolTimeout:    s.Transport.PoolTimeout,
		MaxTotal:       s.Transport.MaxTotal,
		MaxPerRoute:    s.Transport.MaxPerRoute,
	}
}
