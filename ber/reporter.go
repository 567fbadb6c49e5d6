// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package ber

// Reporter receives human-readable diagnostics for recoverable decode or
// encode anomalies (a non-ASCII IA5String byte, an unexpected identifier
// octet) before the codec either proceeds or returns an error. A nil
// Reporter is valid and silently discards every diagnostic.
type Reporter interface {
	Warnf(format string, args ...interface{})
}

func warn(r Reporter, format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.Warnf(format, args...)
}
