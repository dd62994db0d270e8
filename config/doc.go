// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package config loads client-wide defaults for reqchain from a YAML file
and the environment.

Sources are applied in increasing order of precedence: built-in
defaults, the configuration file, then environment variables. Nested
keys are joined with underscores and prefixed, so with the default
prefix the key transport.max_total is read from
REQCHAIN_TRANSPORT_MAX_TOTAL.

	settings, err := config.LoadSettings("")
	if err != nil {
		...
	}
	logger, err := settings.NewLogger()
	...
	client := &reqchain.Client{
		Transport: transport.NewHTTP(settings.TransportOptions()),
		Settings:  settings,
		Logger:    logger,
	}

A file is looked for under the name reqchain.yaml in the working
directory, $HOME/.reqchain and /etc/reqchain when no file is named.
*/
package config
