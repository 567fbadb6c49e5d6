package pdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hhorai/gosnmpber/ber"
)

func sysDescrOid(t *testing.T) ber.Oid {
	t.Helper()
	oid, err := ber.NewOid(ber.Oid{1, 3, 6, 1, 2, 1, 1, 1, 0})
	require.NoError(t, err)
	return oid
}

func TestGetRequestRoundTrip(t *testing.T) {
	want := PDU{
		Type:      GetRequest,
		RequestID: 1,
		Variables: []VarBind{
			{OID: sysDescrOid(t), Value: ber.Null()},
		},
	}

	out, err := Encode(want, nil)
	require.NoError(t, err)
	assert.Equal(t, byte(0xa0), out[0])

	got, consumed, err := Decode(out, nil)
	require.NoError(t, err)
	assert.Equal(t, len(out), consumed)
	assert.Equal(t, want, got)
}

func TestGetResponseRoundTrip(t *testing.T) {
	want := PDU{
		Type:      GetResponse,
		RequestID: 7,
		Variables: []VarBind{
			{OID: sysDescrOid(t), Value: ber.OctetString([]byte("test agent"))},
		},
	}

	out, err := Encode(want, nil)
	require.NoError(t, err)
	assert.Equal(t, byte(0xa2), out[0])

	got, _, err := Decode(out, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetBulkRequestAliasesFields(t *testing.T) {
	want := PDU{
		Type:        GetBulkRequest,
		RequestID:   3,
		ErrorStatus: 0,  // non-repeaters
		ErrorIndex:  10, // max-repetitions
		Variables: []VarBind{
			{OID: sysDescrOid(t), Value: ber.Null()},
		},
	}

	out, err := Encode(want, nil)
	require.NoError(t, err)
	assert.Equal(t, byte(0xa5), out[0])

	got, _, err := Decode(out, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(10), got.MaxRepetitions())
	assert.Equal(t, int32(0), got.NonRepeaters())
}

func TestReportRoundTrip(t *testing.T) {
	usmStatsOid, err := ber.NewOid(ber.Oid{1, 3, 6, 1, 6, 3, 15, 1, 1, 2, 0})
	require.NoError(t, err)
	want := PDU{
		Type:      Report,
		RequestID: 99,
		Variables: []VarBind{
			{OID: usmStatsOid, Value: ber.Counter32(1)},
		},
	}

	out, err := Encode(want, nil)
	require.NoError(t, err)
	assert.Equal(t, byte(0xa8), out[0])

	got, _, err := Decode(out, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeRejectsNonPDUValue(t *testing.T) {
	out, err := ber.Encode(ber.Integer(5), nil)
	require.NoError(t, err)
	_, _, err = Decode(out, nil)
	assert.ErrorIs(t, err, ber.ErrUnexpectedPdu)
}

func TestDecodeRejectsMalformedVarbind(t *testing.T) {
	malformed, err := ber.PDU(ber.KindSnmpGet,
		ber.Integer(1), ber.Integer(0), ber.Integer(0),
		ber.Sequence(ber.Integer(1)), // varbind entry is not a 2-element sequence
	)
	require.NoError(t, err)
	out, err := ber.Encode(malformed, nil)
	require.NoError(t, err)

	_, _, err = Decode(out, nil)
	assert.ErrorIs(t, err, ber.ErrUnexpectedPdu)
}

func TestEncodeUnknownTypeFails(t *testing.T) {
	_, err := Encode(PDU{Type: Type(99)}, nil)
	assert.ErrorIs(t, err, ber.ErrUnexpectedPdu)
}
