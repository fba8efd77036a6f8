// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package logger is a generic logger interface to pass around without
// depending on either golang/glog or aristanetworks/glog directly.
package logger

// Logger is an interface to pass a generic logger without depending on either golang/glog or
// aristanetworks/glog
type Logger interface {
	// Info logs at the info level
	Info(args ...interface{})
	// Infof logs at the info level, with format
	Infof(format string, args ...interface{})
	// Error logs at the error level
	Error(args ...interface{})
	// Errorf logs at the error level, with format
	Errorf(format string, args ...interface{})
	// Fatal logs at the fatal level
	Fatal(args ...interface{})
	// Fatalf logs at the fatal level, with format
	Fatalf(format string, args ...interface{})
	// V reports whether verbose logging at the given level is enabled, the
	// same gate glog.V exposes. cht/epq/htw use this to skip formatting
	// debug diagnostics (resize, migration, expiry, timer-firing) when no one
	// is listening.
	V(level int) bool
}

// Nop is a Logger that discards everything. It is the default used by
// cht/epq/htw when no Logger is supplied.
var Nop Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Info(args ...interface{}) {}

func (nopLogger) Infof(format string, args ...interface{}) {}

func (nopLogger) Error(args ...interface{}) {}

func (nopLogger) Errorf(format string, args ...interface{}) {}

func (nopLogger) Fatal(args ...interface{}) {}

func (nopLogger) Fatalf(format string, args ...interface{}) {}

func (nopLogger) V(level int) bool { return false }
