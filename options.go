// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package obsync

import "github.com/rs/zerolog"

// An Option configures a [Synchronizer].
type Option func(cfg *config)

// WithAttachHook registers a callback that is invoked whenever a source
// is attached. The function that it returns, which may be nil, is
// invoked once the resulting [Handle] has been released. See the
// [vawter.tech/obsync/linger] package for a use of this hook.
func WithAttachHook(fn func() (released func())) Option {
	return func(cfg *config) {
		cfg.attachHook = fn
	}
}

// WithLogger sets the logger used to report attachment lifecycle
// events at debug level and failed notifications at error level. The
// default is [zerolog.Nop].
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = &l
	}
}

// WithName sets a label for the Synchronizer that is included in log
// messages and [Synchronizer.String].
func WithName(name string) Option {
	return func(cfg *config) {
		cfg.name = name
	}
}

type config struct {
	attachHook func() func()
	logger     *zerolog.Logger
	name       string
}

// Sanitize fills in default values.
func (c *config) Sanitize() {
	if c.logger == nil {
		nop := zerolog.Nop()
		c.logger = &nop
	}
	if c.name == "" {
		c.name = "obsync"
	}
	// Bind the name once so that every event carries it.
	l := c.logger.With().Str("synchronizer", c.name).Logger()
	c.logger = &l
}
