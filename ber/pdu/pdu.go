// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package pdu interprets the generic SEQUENCE shape that ber.Value gives
// every PDU-bearing variant (request-id, error-status, error-index, a
// varbind list) as the domain-meaningful SNMP PDU the spec calls the
// "external PDU codec". ber itself owns the outer tag/length framing and
// never imports this package; pdu is the one-way dependency the other way.
package pdu

import (
	"fmt"

	"github.com/hhorai/gosnmpber/ber"
)

// Type identifies which SNMP operation a PDU carries.
type Type int

const (
	GetRequest Type = iota
	GetNextRequest
	GetResponse
	SetRequest
	GetBulkRequest
	TrapV1
	TrapV2
	Report
)

var typeKind = map[Type]ber.Kind{
	GetRequest:     ber.KindSnmpGet,
	GetNextRequest: ber.KindSnmpGetNext,
	GetResponse:    ber.KindSnmpResponse,
	SetRequest:     ber.KindSnmpSet,
	GetBulkRequest: ber.KindSnmpGetBulk,
	TrapV1:         ber.KindSnmpTrapV1,
	TrapV2:         ber.KindSnmpTrapV2,
	Report:         ber.KindSnmpReport,
}

var kindType = func() map[ber.Kind]Type {
	m := make(map[ber.Kind]Type, len(typeKind))
	for t, k := range typeKind {
		m[k] = t
	}
	return m
}()

// VarBind pairs an object identifier with its associated value.
type VarBind struct {
	OID   ber.Oid
	Value ber.Value
}

// PDU is the request-id/error-status/error-index/varbind-list structure
// shared, with field reuse, by every SNMP operation.
//
// For GetBulkRequest, NonRepeaters and MaxRepetitions alias ErrorStatus and
// ErrorIndex respectively — the same BER slot positions carry different
// names depending on Type, exactly as real SNMP agents expect.
type PDU struct {
	Type        Type
	RequestID   int32
	ErrorStatus int32
	ErrorIndex  int32
	Variables   []VarBind
}

// NonRepeaters returns ErrorStatus reinterpreted for a GetBulkRequest.
func (p PDU) NonRepeaters() int32 { return p.ErrorStatus }

// MaxRepetitions returns ErrorIndex reinterpreted for a GetBulkRequest.
func (p PDU) MaxRepetitions() int32 { return p.ErrorIndex }

// ToValue renders p as the ber.Value its Type's wire tag requires.
func (p PDU) ToValue() (ber.Value, error) {
	kind, ok := typeKind[p.Type]
	if !ok {
		return ber.Value{}, fmt.Errorf("pdu: unknown PDU type %d: %w", p.Type, ber.ErrUnexpectedPdu)
	}

	varbinds := make([]ber.Value, 0, len(p.Variables))
	for _, vb := range p.Variables {
		varbinds = append(varbinds, ber.Sequence(ber.OidValue(vb.OID), vb.Value))
	}

	return ber.PDU(kind,
		ber.Integer(int64(p.RequestID)),
		ber.Integer(int64(p.ErrorStatus)),
		ber.Integer(int64(p.ErrorIndex)),
		ber.Sequence(varbinds...),
	)
}

// FromValue is the inverse of ToValue. It fails with ber.ErrUnexpectedPdu
// when v's Kind is not a recognized PDU-bearing variant, or when the
// SEQUENCE shape of v.Seq does not match the four-field PDU layout.
func FromValue(v ber.Value) (PDU, error) {
	typ, ok := kindType[v.Kind]
	if !ok {
		return PDU{}, fmt.Errorf("pdu: value kind %d is not a PDU variant: %w", v.Kind, ber.ErrUnexpectedPdu)
	}
	if len(v.Seq) != 4 {
		return PDU{}, fmt.Errorf("pdu: PDU body has %d fields, want 4: %w", len(v.Seq), ber.ErrUnexpectedPdu)
	}

	requestID, err := fieldAsInt32(v.Seq[0], "request-id")
	if err != nil {
		return PDU{}, err
	}
	errorStatus, err := fieldAsInt32(v.Seq[1], "error-status")
	if err != nil {
		return PDU{}, err
	}
	errorIndex, err := fieldAsInt32(v.Seq[2], "error-index")
	if err != nil {
		return PDU{}, err
	}

	varbindList := v.Seq[3]
	if varbindList.Kind != ber.KindSequence {
		return PDU{}, fmt.Errorf("pdu: varbind-list field has kind %d, want Sequence: %w",
			varbindList.Kind, ber.ErrUnexpectedPdu)
	}

	variables := make([]VarBind, 0, len(varbindList.Seq))
	for i, entry := range varbindList.Seq {
		if entry.Kind != ber.KindSequence || len(entry.Seq) != 2 {
			return PDU{}, fmt.Errorf("pdu: varbind %d is malformed: %w", i, ber.ErrUnexpectedPdu)
		}
		if entry.Seq[0].Kind != ber.KindOid {
			return PDU{}, fmt.Errorf("pdu: varbind %d name is not an OID: %w", i, ber.ErrUnexpectedPdu)
		}
		variables = append(variables, VarBind{OID: entry.Seq[0].Oid, Value: entry.Seq[1]})
	}

	return PDU{
		Type:        typ,
		RequestID:   requestID,
		ErrorStatus: errorStatus,
		ErrorIndex:  errorIndex,
		Variables:   variables,
	}, nil
}

func fieldAsInt32(v ber.Value, name string) (int32, error) {
	if v.Kind != ber.KindInteger {
		return 0, fmt.Errorf("pdu: %s field has kind %d, want Integer: %w", name, v.Kind, ber.ErrUnexpectedPdu)
	}
	return int32(v.Int), nil
}

// Encode produces the complete TLV for p.
func Encode(p PDU, rep ber.Reporter) ([]byte, error) {
	v, err := p.ToValue()
	if err != nil {
		return nil, err
	}
	return ber.Encode(v, rep)
}

// Decode reads one PDU TLV from the front of data.
func Decode(data []byte, rep ber.Reporter) (PDU, int, error) {
	v, consumed, err := ber.Decode(data, rep)
	if err != nil {
		return PDU{}, 0, err
	}
	p, err := FromValue(v)
	if err != nil {
		return PDU{}, 0, err
	}
	return p, consumed, nil
}
