// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logger with the configured level and format. An
// empty level means info.
func (s *Settings) NewLogger() (*logrus.Logger, error) {
	return s.Logging.NewLogger()
}

// NewLogger returns a logger with level l.Level and a text or json
// formatter according to l.Format.
func (l LoggingSettings) NewLogger() (*logrus.Logger, error) {
	logger := logrus.New()

	level := logrus.InfoLevel
	if l.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(l.Level); err != nil {
			return nil, fmt.Errorf("reqchain/config: %w", err)
		}
	}
	logger.SetLevel(level)

	switch l.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	default:
		return nil, fmt.Errorf("reqchain/config: unknown logging format %q", l.Format)
	}
	return logger, nil
}
