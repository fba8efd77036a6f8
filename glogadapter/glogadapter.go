// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package glogadapter implements logger.Logger over github.com/aristanetworks/glog,
// so cht, epq, htw and the substrate pipeline can log without depending on
// glog directly.
package glogadapter

import "github.com/aristanetworks/glog"

// Glog is a logger.Logger backed by glog.
type Glog struct {
	// default value of glog.Level is 0
	InfoLevel glog.Level
}

// Info logs at the info level
func (g *Glog) Info(args ...interface{}) {
	glog.V(g.InfoLevel).Info(args...)
}

// Infof logs at the info level, with format
func (g *Glog) Infof(format string, args ...interface{}) {
	glog.V(g.InfoLevel).Infof(format, args...)
}

// Error logs at the error level
func (g *Glog) Error(args ...interface{}) {
	glog.Error(args...)
}

// Errorf logs at the error level, with format
func (g *Glog) Errorf(format string, args ...interface{}) {
	glog.Errorf(format, args...)
}

// Fatal logs at the fatal level
func (g *Glog) Fatal(args ...interface{}) {
	glog.Fatal(args...)
}

// Fatalf logs at the fatal level, with format
func (g *Glog) Fatalf(format string, args ...interface{}) {
	glog.Fatalf(format, args...)
}

// V reports whether verbose logging at the given level is enabled.
func (g *Glog) V(level int) bool {
	return bool(glog.V(glog.Level(level)))
}
