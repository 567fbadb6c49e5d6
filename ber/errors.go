// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package ber

import "errors"

// Error kinds surfaced by the codec. Callers compare with errors.Is;
// the codec itself never retries a failed encode or decode.
var (
	ErrBadLength       = errors.New("ber: bad length")
	ErrUnsupportedType = errors.New("ber: unsupported type")
	ErrMalformedOid    = errors.New("ber: malformed oid")
	ErrIntegerOverflow = errors.New("ber: integer overflow")
	ErrUnexpectedPdu   = errors.New("ber: unexpected pdu")
)
