package mibtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hhorai/gosnmpber/ber"
)

func mustOid(t *testing.T, arcs ...uint32) ber.Oid {
	t.Helper()
	oid, err := ber.NewOid(arcs)
	require.NoError(t, err)
	return oid
}

func TestTreeGetExactMatch(t *testing.T) {
	tr := New()
	oid := mustOid(t, 1, 3, 6, 1, 2, 1, 1, 5, 0)
	tr.Load([]Entry{{OID: oid, Value: ber.OctetString([]byte("router1"))}})

	v, ok := tr.Get(oid)
	require.True(t, ok)
	assert.Equal(t, ber.OctetString([]byte("router1")), v)

	_, ok = tr.Get(mustOid(t, 1, 3, 6, 1, 2, 1, 1, 6, 0))
	assert.False(t, ok)
}

func TestTreeGetNextWalksInOrder(t *testing.T) {
	tr := New()
	oidA := mustOid(t, 1, 3, 6, 1, 2, 1, 2, 2, 1, 1, 1)
	oidB := mustOid(t, 1, 3, 6, 1, 2, 1, 2, 2, 1, 1, 2)
	oidC := mustOid(t, 1, 3, 6, 1, 2, 1, 2, 2, 1, 2, 1)
	tr.Load([]Entry{
		{OID: oidC, Value: ber.OctetString([]byte("eth0"))},
		{OID: oidA, Value: ber.Integer(1)},
		{OID: oidB, Value: ber.Integer(2)},
	})

	nextOid, v, ok := tr.GetNext(mustOid(t, 1, 3, 6, 1, 2, 1, 2, 2, 1, 1, 0))
	require.True(t, ok)
	assert.True(t, nextOid.Equal(oidA))
	assert.Equal(t, ber.Integer(1), v)

	nextOid, v, ok = tr.GetNext(oidA)
	require.True(t, ok)
	assert.True(t, nextOid.Equal(oidB))
	assert.Equal(t, ber.Integer(2), v)
}

func TestTreeGetNextEndOfMibView(t *testing.T) {
	tr := New()
	oid := mustOid(t, 1, 3, 6, 1, 2, 1, 1, 1, 0)
	tr.Load([]Entry{{OID: oid, Value: ber.Null()}})

	_, v, ok := tr.GetNext(oid)
	assert.False(t, ok)
	assert.Equal(t, ber.EndOfMibView(), v)
}

func TestTreeSetInsertsAndUpdates(t *testing.T) {
	tr := New()
	oid := mustOid(t, 1, 3, 6, 1, 2, 1, 1, 4, 0)

	require.NoError(t, tr.Set(oid, ber.OctetString([]byte("admin"))))
	v, ok := tr.Get(oid)
	require.True(t, ok)
	assert.Equal(t, ber.OctetString([]byte("admin")), v)

	require.NoError(t, tr.Set(oid, ber.OctetString([]byte("root"))))
	v, ok = tr.Get(oid)
	require.True(t, ok)
	assert.Equal(t, ber.OctetString([]byte("root")), v)
}

func TestColumnOid(t *testing.T) {
	oid := columnOid(colIfDescr, 3)
	assert.True(t, oid.Equal(mustOid(t, 1, 3, 6, 1, 2, 1, 2, 2, 1, 2, 3)))
}
