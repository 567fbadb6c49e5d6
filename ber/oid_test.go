package ber

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOid(t *testing.T) {
	pattern := []struct {
		in Oid
		ev string
	}{
		{Oid{1, 3, 6, 1, 2, 1}, "06 05 2b 06 01 02 01"},
		{Oid{0, 0}, "06 01 00"},
		{Oid{2, 999, 3}, "06 03 883703"},
	}

	for _, p := range pattern {
		ev, err := hex.DecodeString(stripSpaces(p.ev))
		require.NoError(t, err)
		out, err := EncodeOid(p.in)
		require.NoError(t, err)
		assert.Equal(t, ev, out, "EncodeOid(%v)", p.in)
	}
}

func TestEncodeOidRejectsShort(t *testing.T) {
	_, err := EncodeOid(Oid{1})
	assert.ErrorIs(t, err, ErrMalformedOid)
}

func TestEncodeOidRejectsBadFirstArc(t *testing.T) {
	_, err := EncodeOid(Oid{3, 1})
	assert.ErrorIs(t, err, ErrMalformedOid)
}

func TestEncodeOidRejectsOversizedSecondArc(t *testing.T) {
	_, err := EncodeOid(Oid{1, 40})
	assert.ErrorIs(t, err, ErrMalformedOid)
}

func TestDecodeOidArcs(t *testing.T) {
	body, err := hex.DecodeString("2b06010201")
	require.NoError(t, err)
	arcs, err := DecodeOidArcs(body)
	require.NoError(t, err)
	assert.Equal(t, Oid{1, 3, 6, 1, 2, 1}, arcs)
}

func TestDecodeOidArcsMidContinuation(t *testing.T) {
	_, err := DecodeOidArcs([]byte{0x2b, 0x80})
	assert.ErrorIs(t, err, ErrMalformedOid)
}

func TestDecodeOidArcsEmpty(t *testing.T) {
	_, err := DecodeOidArcs(nil)
	assert.ErrorIs(t, err, ErrMalformedOid)
}

func TestOidRoundTrip(t *testing.T) {
	for _, arcs := range []Oid{
		{1, 3, 6, 1, 2, 1},
		{1, 3, 6, 1, 4, 1, 9999, 1},
		{2, 100, 3},
		{0, 0},
	} {
		body, err := EncodeOidArcs(arcs)
		require.NoError(t, err)
		back, err := DecodeOidArcs(body)
		require.NoError(t, err)
		assert.True(t, arcs.Equal(back), "round-trip %v -> %v", arcs, back)
	}
}

func TestOidString(t *testing.T) {
	assert.Equal(t, "1.3.6.1.2.1", Oid{1, 3, 6, 1, 2, 1}.String())
}

func stripSpaces(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
