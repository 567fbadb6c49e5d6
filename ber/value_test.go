package ber

import (
	"encoding/hex"
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logrusReporter adapts a *logrus.Logger to ber.Reporter so tests can
// assert on the diagnostics the codec emits for recoverable anomalies.
type logrusReporter struct{ logger *logrus.Logger }

func (r logrusReporter) Warnf(format string, args ...interface{}) {
	r.logger.Warnf(format, args...)
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(stripSpaces(s))
	require.NoError(t, err)
	return b
}

func TestEncodeScenarios(t *testing.T) {
	oid, err := NewOid(Oid{1, 3, 6, 1, 2, 1})
	require.NoError(t, err)

	pattern := []struct {
		name string
		in   Value
		hex  string
	}{
		{"Integer 0", Integer(0), "02 01 00"},
		{"Integer 127", Integer(127), "02 01 7f"},
		{"Integer 128", Integer(128), "02 02 00 80"},
		{"Integer -128", Integer(-128), "02 01 80"},
		{"Integer -129", Integer(-129), "02 02 ff 7f"},
		{"Integer -32768", Integer(-32768), "02 02 80 00"},
		{"Integer -8388608", Integer(-8388608), "02 03 80 00 00"},
		{"Integer -2147483648", Integer(-2147483648), "02 04 80 00 00 00"},
		{"OctetString public", OctetString([]byte("public")), "04 06 70 75 62 6c 69 63"},
		{"Null", Null(), "05 00"},
		{"Oid 1.3.6.1.2.1", OidValue(oid), "06 05 2b 06 01 02 01"},
		{"Sequence[Integer 1, Null]", Sequence(Integer(1), Null()), "30 05 02 01 01 05 00"},
		{"Counter64 2^33", Counter64(1 << 33), "46 08 00 00 00 02 00 00 00 00"},
		{"IpAddress 192.0.2.1", IPAddress(0xc0000201), "40 04 c0 00 02 01"},
	}

	for _, p := range pattern {
		expect := mustHex(t, p.hex)
		out, err := Encode(p.in, nil)
		require.NoError(t, err, p.name)
		assert.Equal(t, expect, out, p.name)
	}
}

func TestDecodeScenariosRoundTrip(t *testing.T) {
	oid, err := NewOid(Oid{1, 3, 6, 1, 2, 1})
	require.NoError(t, err)

	pattern := []struct {
		name string
		ev   Value
		hex  string
	}{
		{"Integer 0", Integer(0), "02 01 00"},
		{"Integer 127", Integer(127), "02 01 7f"},
		{"Integer 128", Integer(128), "02 02 00 80"},
		{"Integer -128", Integer(-128), "02 01 80"},
		{"Integer -129", Integer(-129), "02 02 ff 7f"},
		{"Integer -32768", Integer(-32768), "02 02 80 00"},
		{"Integer -8388608", Integer(-8388608), "02 03 80 00 00"},
		{"Integer -2147483648", Integer(-2147483648), "02 04 80 00 00 00"},
		{"OctetString public", OctetString([]byte("public")), "04 06 70 75 62 6c 69 63"},
		{"Null", Null(), "05 00"},
		{"Oid 1.3.6.1.2.1", OidValue(oid), "06 05 2b 06 01 02 01"},
		{"Sequence[Integer 1, Null]", Sequence(Integer(1), Null()), "30 05 02 01 01 05 00"},
		{"Counter64 2^33", Counter64(1 << 33), "46 08 00 00 00 02 00 00 00 00"},
		{"IpAddress 192.0.2.1", IPAddress(0xc0000201), "40 04 c0 00 02 01"},
	}

	for _, p := range pattern {
		data := mustHex(t, p.hex)
		v, consumed, err := Decode(data, nil)
		require.NoError(t, err, p.name)
		assert.Equal(t, len(data), consumed, p.name)
		assert.Equal(t, p.ev, v, p.name)
	}
}

func TestSequenceAcceptsBothTagsOnDecode(t *testing.T) {
	body := mustHex(t, "02 01 01 05 00")
	for _, tag := range []byte{0x30, 0x10} {
		data := append([]byte{tag, byte(len(body))}, body...)
		v, consumed, err := Decode(data, nil)
		require.NoError(t, err)
		assert.Equal(t, len(data), consumed)
		assert.Equal(t, Sequence(Integer(1), Null()), v)
	}
}

func TestDecodeCounterAcceptsShortPayload(t *testing.T) {
	data := mustHex(t, "41 01 05")
	v, consumed, err := Decode(data, nil)
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	assert.Equal(t, Counter32(5), v)
}

func TestDecodeUnsupportedType(t *testing.T) {
	_, _, err := Decode([]byte{0x1f, 0x00}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDecodeUnsupportedTypeReportsDiagnostic(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	rep := logrusReporter{logger: logger}
	_, _, err := Decode([]byte{0x1f, 0x00}, rep)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	require.Len(t, hook.AllEntries(), 1)
}

func TestDecodeIntegerOverflow(t *testing.T) {
	body := make([]byte, 9)
	data := append([]byte{0x02, 0x09}, body...)
	_, _, err := Decode(data, nil)
	assert.ErrorIs(t, err, ErrIntegerOverflow)
}

func TestDecodeNullRejectsNonEmptyBody(t *testing.T) {
	_, _, err := Decode([]byte{0x05, 0x01, 0x00}, nil)
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestDecodeIPAddressRejectsWrongLength(t *testing.T) {
	_, _, err := Decode([]byte{0x40, 0x03, 0x01, 0x02, 0x03}, nil)
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestDecodeTruncatedBody(t *testing.T) {
	_, _, err := Decode([]byte{0x02, 0x05, 0x01}, nil)
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestEncodeIA5StringWarnsOnNonASCII(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	rep := logrusReporter{logger: logger}
	out, err := Encode(IA5String("caf\xc3\xa9"), rep)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestPDURejectsNonPDUKind(t *testing.T) {
	_, err := PDU(KindInteger, Integer(1))
	assert.ErrorIs(t, err, ErrUnexpectedPdu)
}

func TestPDUEncodeDecodeRoundTrip(t *testing.T) {
	oid, err := NewOid(Oid{1, 3, 6, 1, 2, 1, 1, 0})
	require.NoError(t, err)
	varbind := Sequence(OidValue(oid), Null())
	pdu, err := PDU(KindSnmpGet,
		Integer(42),
		Integer(0),
		Integer(0),
		Sequence(varbind),
	)
	require.NoError(t, err)

	out, err := Encode(pdu, nil)
	require.NoError(t, err)
	assert.Equal(t, byte(0xa0), out[0])

	back, consumed, err := Decode(out, nil)
	require.NoError(t, err)
	assert.Equal(t, len(out), consumed)
	assert.Equal(t, pdu, back)
}

func TestFuzzNeverPanics(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		{0x30},
		{0x30, 0x80},
		{0x30, 0x05, 0x02, 0x01},
		{0xff, 0xff, 0xff, 0xff},
		{0x02, 0x7f},
		{0x06, 0x01, 0x80},
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			_, _, _ = Decode(in, nil)
		})
	}
}
