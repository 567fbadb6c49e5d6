// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package ber

import (
	"fmt"
	"math"
)

// maxLongFormDigits is the largest base-256 digit count the encoder will
// produce in long form. The long-form count field is seven bits wide, but
// SNMP datagrams never approach lengths that need more than this.
const maxLongFormDigits = 126

// EncodeLength encodes n in BER length form: short form (one byte) for
// n < 128, long form (0x80|k followed by k big-endian digits) otherwise.
func EncodeLength(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("ber: negative length %d: %w", n, ErrBadLength)
	}
	if n < 128 {
		return []byte{byte(n)}, nil
	}

	var digits []byte
	for v := n; v > 0; v >>= 8 {
		digits = append([]byte{byte(v)}, digits...)
	}
	if len(digits) > maxLongFormDigits {
		return nil, fmt.Errorf("ber: length %d needs %d digits, exceeds %d: %w",
			n, len(digits), maxLongFormDigits, ErrBadLength)
	}

	out := make([]byte, 0, 1+len(digits))
	out = append(out, 0x80|byte(len(digits)))
	out = append(out, digits...)
	return out, nil
}

// DecodeLength reads a BER length field from the front of b and returns the
// decoded length plus the number of bytes the length field itself occupied.
func DecodeLength(b []byte) (length, consumed int, err error) {
	if len(b) < 1 {
		return 0, 0, fmt.Errorf("ber: empty length field: %w", ErrBadLength)
	}

	first := b[0]
	if first&0x80 == 0 {
		return int(first), 1, nil
	}

	k := int(first & 0x7f)
	if k == 0 {
		return 0, 0, fmt.Errorf("ber: indefinite length form is not supported: %w", ErrBadLength)
	}
	if len(b) < 1+k {
		return 0, 0, fmt.Errorf("ber: long-form length wants %d bytes, have %d: %w",
			k, len(b)-1, ErrBadLength)
	}

	n := 0
	for i := 0; i < k; i++ {
		if n > math.MaxInt>>16 {
			return 0, 0, fmt.Errorf("ber: long-form length overflows int: %w", ErrBadLength)
		}
		n = n<<8 | int(b[1+i])
	}
	return n, 1 + k, nil
}
