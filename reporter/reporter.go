// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package reporter provides the concrete ber.Reporter implementations used
// outside of tests: a logrus-backed reporter for production code, wired
// the way marmos91-dittofs threads logrus through its service layer.
package reporter

import "github.com/sirupsen/logrus"

// Logrus adapts a *logrus.Logger (or the package-level logger if Log is
// nil) to ber.Reporter.
type Logrus struct {
	Log    *logrus.Logger
	Fields logrus.Fields
}

// Warnf implements ber.Reporter.
func (l Logrus) Warnf(format string, args ...interface{}) {
	log := l.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	entry := log.WithFields(l.Fields)
	entry.Warnf(format, args...)
}

// New returns a Logrus reporter scoped to component, e.g. "agent" or
// "client", so diagnostics from concurrent sessions can be told apart.
func New(log *logrus.Logger, component string) Logrus {
	return Logrus{Log: log, Fields: logrus.Fields{"component": component}}
}
