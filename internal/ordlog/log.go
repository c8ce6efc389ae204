// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package ordlog provides the library-wide logging hook, in the idiom
// btcd subsystems use: a package-level logger defaulting to Disabled,
// replaceable by the embedding application via UseLogger. No library
// package in this module creates its own logger or writes to stdout directly.
package ordlog

import (
	"github.com/btcsuite/btclog"
)

// log is the package-wide logger. It starts out disabled so a caller that
// never calls UseLogger sees no output at all.
var log = btclog.Disabled

// UseLogger sets the logger used by every component in this module that
// calls ordlog.Log(). Intended to be called once, at application start.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// Log returns the currently configured logger.
func Log() btclog.Logger {
	return log
}
