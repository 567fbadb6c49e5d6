// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package ber implements the subset of ASN.1 Basic Encoding Rules that
// SNMP v1/v2c/v3 requires: a bidirectional mapping between a tagged-union
// Value and a byte stream obeying the tag-length-value discipline.
package ber

import (
	"fmt"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindEndOfContent Kind = iota
	KindInteger
	KindBitString
	KindOctetString
	KindNull
	KindOid
	KindIA5String
	KindSequence
	KindIPAddress
	KindCounter32
	KindGauge32
	KindTimeTicks
	KindCounter64
	KindNoSuchObject
	KindEndOfMibView
	KindSnmpGet
	KindSnmpGetNext
	KindSnmpResponse
	KindSnmpSet
	KindSnmpGetBulk
	KindSnmpTrapV1
	KindSnmpTrapV2
	KindSnmpReport
)

// Wire identifier octets, per the SNMP BER profile.
const (
	tagEndOfContent = 0x00
	tagInteger      = 0x02
	tagBitString    = 0x03
	tagOctetString  = 0x04
	tagNull         = 0x05
	tagOid          = 0x06
	tagIA5String    = 0x16
	tagSequence     = 0x30
	tagSequenceAlt  = 0x10 // accepted on decode, see known leniency in §9
	tagIPAddress    = 0x40
	tagCounter32    = 0x41
	tagGauge32      = 0x42
	tagTimeTicks    = 0x43
	tagCounter64    = 0x46
	tagNoSuchObject = 0x80
	tagEndOfMibView = 0x82
	tagSnmpGet      = 0xa0
	tagSnmpGetNext  = 0xa1
	tagSnmpResponse = 0xa2
	tagSnmpSet      = 0xa3
	tagSnmpTrapV1   = 0xa4
	tagSnmpGetBulk  = 0xa5
	tagSnmpTrapV2   = 0xa7
	tagSnmpReport   = 0xa8
)

var kindTag = map[Kind]byte{
	KindEndOfContent: tagEndOfContent,
	KindInteger:      tagInteger,
	KindBitString:    tagBitString,
	KindOctetString:  tagOctetString,
	KindNull:         tagNull,
	KindOid:          tagOid,
	KindIA5String:    tagIA5String,
	KindSequence:     tagSequence,
	KindIPAddress:    tagIPAddress,
	KindCounter32:    tagCounter32,
	KindGauge32:      tagGauge32,
	KindTimeTicks:    tagTimeTicks,
	KindCounter64:    tagCounter64,
	KindNoSuchObject: tagNoSuchObject,
	KindEndOfMibView: tagEndOfMibView,
	KindSnmpGet:      tagSnmpGet,
	KindSnmpGetNext:  tagSnmpGetNext,
	KindSnmpResponse: tagSnmpResponse,
	KindSnmpSet:      tagSnmpSet,
	KindSnmpGetBulk:  tagSnmpGetBulk,
	KindSnmpTrapV1:   tagSnmpTrapV1,
	KindSnmpTrapV2:   tagSnmpTrapV2,
	KindSnmpReport:   tagSnmpReport,
}

var tagKind = func() map[byte]Kind {
	m := make(map[byte]Kind, len(kindTag))
	for k, t := range kindTag {
		m[t] = k
	}
	return m
}()

// pduKinds is the set of variants whose wire shape is a context-specific
// tag wrapping a SEQUENCE of fields, i.e. every PDU-bearing variant. Their
// outer tag/length framing is owned by this package; ber/pdu interprets
// the resulting Seq children as a domain PDU.
var pduKinds = map[Kind]bool{
	KindSnmpGet:      true,
	KindSnmpGetNext:  true,
	KindSnmpResponse: true,
	KindSnmpSet:      true,
	KindSnmpGetBulk:  true,
	KindSnmpTrapV1:   true,
	KindSnmpTrapV2:   true,
	KindSnmpReport:   true,
}

// Value is the closed sum at the center of the codec. Exactly the fields
// relevant to Kind are meaningful; constructors below populate only those.
// A Value returned by Decode owns every byte slice it holds — none alias
// the buffer that was decoded.
type Value struct {
	Kind   Kind
	Int    int64   // Integer
	Bytes  []byte  // OctetString, BitString, IA5String
	Oid    Oid     // Oid
	Seq    []Value // Sequence, and the field list of PDU-bearing variants
	Uint32 uint32  // IPAddress, Counter32, Gauge32, TimeTicks
	Uint64 uint64  // Counter64
}

func Integer(v int64) Value          { return Value{Kind: KindInteger, Int: v} }
func OctetString(b []byte) Value     { return Value{Kind: KindOctetString, Bytes: append([]byte(nil), b...)} }
func BitString(b []byte) Value       { return Value{Kind: KindBitString, Bytes: append([]byte(nil), b...)} }
func IA5String(s string) Value       { return Value{Kind: KindIA5String, Bytes: []byte(s)} }
func Null() Value                    { return Value{Kind: KindNull} }
func NoSuchObject() Value            { return Value{Kind: KindNoSuchObject} }
func EndOfMibView() Value            { return Value{Kind: KindEndOfMibView} }
func Sequence(children ...Value) Value { return Value{Kind: KindSequence, Seq: children} }
func OidValue(o Oid) Value           { return Value{Kind: KindOid, Oid: o} }
func IPAddress(v uint32) Value       { return Value{Kind: KindIPAddress, Uint32: v} }
func Counter32(v uint32) Value       { return Value{Kind: KindCounter32, Uint32: v} }
func Gauge32(v uint32) Value         { return Value{Kind: KindGauge32, Uint32: v} }
func TimeTicks(v uint32) Value       { return Value{Kind: KindTimeTicks, Uint32: v} }
func Counter64(v uint64) Value       { return Value{Kind: KindCounter64, Uint64: v} }

// PDU builds a PDU-bearing Value (one of the Snmp* kinds) from its field
// list; fields is normally produced by ber/pdu's domain-to-wire converter.
func PDU(kind Kind, fields ...Value) (Value, error) {
	if !pduKinds[kind] {
		return Value{}, fmt.Errorf("ber: kind %d is not a PDU-bearing variant: %w", kind, ErrUnexpectedPdu)
	}
	return Value{Kind: kind, Seq: fields}, nil
}

// Encode produces the complete TLV for v. rep may be nil.
func Encode(v Value, rep Reporter) ([]byte, error) {
	switch v.Kind {
	case KindInteger:
		return wrapTLV(tagInteger, encodeInteger(v.Int))
	case KindOctetString:
		return wrapTLV(tagOctetString, v.Bytes)
	case KindBitString:
		return wrapTLV(tagBitString, v.Bytes)
	case KindIA5String:
		for _, b := range v.Bytes {
			if b > 0x7f {
				warn(rep, "ber: IA5String contains non-ASCII byte 0x%02x, encoding as UTF-8", b)
				break
			}
		}
		return wrapTLV(tagIA5String, v.Bytes)
	case KindNull:
		return []byte{tagNull, 0x00}, nil
	case KindNoSuchObject:
		return []byte{tagNoSuchObject, 0x00}, nil
	case KindEndOfMibView:
		return []byte{tagEndOfMibView, 0x00}, nil
	case KindOid:
		return EncodeOid(v.Oid)
	case KindSequence:
		body, err := encodeChildren(v.Seq, rep)
		if err != nil {
			return nil, err
		}
		return wrapTLV(tagSequence, body)
	case KindIPAddress:
		return wrapTLV(tagIPAddress, uint32ToBytes(v.Uint32, 4))
	case KindCounter32:
		return wrapTLV(tagCounter32, uint32ToBytes(v.Uint32, 4))
	case KindGauge32:
		return wrapTLV(tagGauge32, uint32ToBytes(v.Uint32, 4))
	case KindTimeTicks:
		return wrapTLV(tagTimeTicks, uint32ToBytes(v.Uint32, 4))
	case KindCounter64:
		return wrapTLV(tagCounter64, uint64ToBytes(v.Uint64, 8))
	default:
		if pduKinds[v.Kind] {
			body, err := encodeChildren(v.Seq, rep)
			if err != nil {
				return nil, err
			}
			return wrapTLV(kindTag[v.Kind], body)
		}
		return nil, fmt.Errorf("ber: cannot encode kind %d: %w", v.Kind, ErrUnsupportedType)
	}
}

func encodeChildren(children []Value, rep Reporter) ([]byte, error) {
	var body []byte
	for _, c := range children {
		b, err := Encode(c, rep)
		if err != nil {
			return nil, err
		}
		body = append(body, b...)
	}
	return body, nil
}

func wrapTLV(tag byte, body []byte) ([]byte, error) {
	lenField, err := EncodeLength(len(body))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(lenField)+len(body))
	out = append(out, tag)
	out = append(out, lenField...)
	out = append(out, body...)
	return out, nil
}

// Decode reads one TLV from the front of data and returns the Value plus
// the number of bytes consumed. Trailing bytes are left for the caller.
func Decode(data []byte, rep Reporter) (Value, int, error) {
	if len(data) < 1 {
		return Value{}, 0, fmt.Errorf("ber: empty input: %w", ErrBadLength)
	}
	tag := data[0]

	length, lenConsumed, err := DecodeLength(data[1:])
	if err != nil {
		return Value{}, 0, err
	}
	prefixLen := 1 + lenConsumed
	if len(data) < prefixLen+length {
		return Value{}, 0, fmt.Errorf("ber: body wants %d bytes, have %d: %w",
			length, len(data)-prefixLen, ErrBadLength)
	}
	body := data[prefixLen : prefixLen+length]
	total := prefixLen + length

	v, err := decodeBody(tag, body, rep)
	if err != nil {
		return Value{}, 0, err
	}
	return v, total, nil
}

func decodeBody(tag byte, body []byte, rep Reporter) (Value, error) {
	switch tag {
	case tagInteger:
		n, err := decodeInteger(body)
		if err != nil {
			return Value{}, err
		}
		return Integer(n), nil
	case tagOctetString:
		return OctetString(body), nil
	case tagBitString:
		return BitString(body), nil
	case tagIA5String:
		for _, b := range body {
			if b > 0x7f {
				warn(rep, "ber: decoded IA5String contains non-ASCII byte 0x%02x, interpreting as UTF-8", b)
				break
			}
		}
		return IA5String(string(body)), nil
	case tagNull:
		if len(body) != 0 {
			return Value{}, fmt.Errorf("ber: Null has non-empty body of %d bytes: %w", len(body), ErrBadLength)
		}
		return Null(), nil
	case tagNoSuchObject:
		if len(body) != 0 {
			return Value{}, fmt.Errorf("ber: NoSuchObject has non-empty body of %d bytes: %w", len(body), ErrBadLength)
		}
		return NoSuchObject(), nil
	case tagEndOfMibView:
		if len(body) != 0 {
			return Value{}, fmt.Errorf("ber: EndOfMibView has non-empty body of %d bytes: %w", len(body), ErrBadLength)
		}
		return EndOfMibView(), nil
	case tagOid:
		o, err := DecodeOidArcs(body)
		if err != nil {
			return Value{}, err
		}
		return OidValue(o), nil
	case tagSequence, tagSequenceAlt:
		children, err := decodeChildren(body, rep)
		if err != nil {
			return Value{}, err
		}
		return Sequence(children...), nil
	case tagIPAddress:
		if len(body) != 4 {
			return Value{}, fmt.Errorf("ber: IpAddress body is %d bytes, want 4: %w", len(body), ErrBadLength)
		}
		return IPAddress(bytesToUint32(body)), nil
	case tagCounter32:
		n, err := decodeFixedUint32(body, "Counter32")
		if err != nil {
			return Value{}, err
		}
		return Counter32(n), nil
	case tagGauge32:
		n, err := decodeFixedUint32(body, "Gauge32")
		if err != nil {
			return Value{}, err
		}
		return Gauge32(n), nil
	case tagTimeTicks:
		n, err := decodeFixedUint32(body, "TimeTicks")
		if err != nil {
			return Value{}, err
		}
		return TimeTicks(n), nil
	case tagCounter64:
		if len(body) < 1 || len(body) > 8 {
			return Value{}, fmt.Errorf("ber: Counter64 body is %d bytes, want 1-8: %w", len(body), ErrBadLength)
		}
		return Counter64(bytesToUint64(body)), nil
	default:
		if kind, ok := tagKind[tag]; ok && pduKinds[kind] {
			children, err := decodeChildren(body, rep)
			if err != nil {
				return Value{}, err
			}
			return Value{Kind: kind, Seq: children}, nil
		}
		warn(rep, "ber: unexpected identifier octet 0x%02x", tag)
		return Value{}, fmt.Errorf("ber: unexpected identifier octet 0x%02x: %w", tag, ErrUnsupportedType)
	}
}

func decodeChildren(body []byte, rep Reporter) ([]Value, error) {
	var children []Value
	for len(body) > 0 {
		v, consumed, err := Decode(body, rep)
		if err != nil {
			return nil, err
		}
		if consumed > len(body) {
			return nil, fmt.Errorf("ber: child consumed %d bytes, only %d remain: %w", consumed, len(body), ErrBadLength)
		}
		children = append(children, v)
		body = body[consumed:]
	}
	return children, nil
}

// encodeInteger produces the minimal two's-complement big-endian encoding
// of v, per §4.3: one byte suffices for -128..127; longer payloads grow by
// one byte at a time, stopping once the entire remaining value has settled
// to 0 or -1 and is already consistent with the leading byte's sign.
func encodeInteger(v int64) []byte {
	n := v
	out := []byte{byte(n)}
	for i := 1; i < 8; i++ {
		n >>= 8
		if (n == 0 && out[0]&0x80 == 0) || (n == -1 && out[0]&0x80 != 0) {
			break
		}
		out = append([]byte{byte(n)}, out...)
	}
	return out
}

func decodeInteger(body []byte) (int64, error) {
	if len(body) == 0 {
		return 0, fmt.Errorf("ber: Integer has empty body: %w", ErrBadLength)
	}
	if len(body) > 8 {
		return 0, fmt.Errorf("ber: Integer body is %d bytes, exceeds 8: %w", len(body), ErrIntegerOverflow)
	}
	var v int64
	if body[0]&0x80 != 0 {
		v = -1
	}
	for _, b := range body {
		v = v<<8 | int64(b)
	}
	return v, nil
}

func decodeFixedUint32(body []byte, name string) (uint32, error) {
	if len(body) < 1 || len(body) > 4 {
		return 0, fmt.Errorf("ber: %s body is %d bytes, want 1-4: %w", name, len(body), ErrBadLength)
	}
	return bytesToUint32(body), nil
}

func uint32ToBytes(v uint32, width int) []byte {
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

func uint64ToBytes(v uint64, width int) []byte {
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

func bytesToUint32(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

func bytesToUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
