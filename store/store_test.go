package store

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, kv KV, prefix string) map[string]string {
	t.Helper()
	out := map[string]string{}
	var last string
	require.NoError(t, kv.Iterate([]byte(prefix), func(k, v []byte) bool {
		assert.Greater(t, string(k), last, "keys out of order")
		last = string(k)
		out[string(k)] = string(v)
		return true
	}))
	return out
}

// testKV runs the shared KV behavior checks against a fresh store.
func testKV(t *testing.T, kv KV) {
	v, err := kv.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, kv.Set([]byte("a/1"), []byte("one")))
	require.NoError(t, kv.Set([]byte("a/2"), []byte("two")))
	require.NoError(t, kv.Set([]byte("b/1"), []byte("three")))

	v, err = kv.Get([]byte("a/1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), v)

	assert.Equal(t, map[string]string{"a/1": "one", "a/2": "two"}, collect(t, kv, "a/"))

	require.NoError(t, kv.Delete([]byte("a/1")))
	assert.Equal(t, map[string]string{"a/2": "two"}, collect(t, kv, "a/"))
	assert.Len(t, collect(t, kv, ""), 2)
}

func TestMemDB(t *testing.T) {
	testKV(t, NewMemDB())
}

func TestMemDB_GetReturnsCopy(t *testing.T) {
	db := NewMemDB()
	require.NoError(t, db.Set([]byte("k"), []byte("v")))
	v, _ := db.Get([]byte("k"))
	v[0] = 'x'
	v2, _ := db.Get([]byte("k"))
	assert.Equal(t, []byte("v"), v2)
}

func TestCache_BuffersUntilWrite(t *testing.T) {
	parent := NewMemDB()
	require.NoError(t, parent.Set([]byte("keep"), []byte("1")))
	require.NoError(t, parent.Set([]byte("drop"), []byte("2")))

	c := NewCache(parent)
	require.NoError(t, c.Set([]byte("new"), []byte("3")))
	require.NoError(t, c.Delete([]byte("drop")))

	v, err := c.Get([]byte("drop"))
	require.NoError(t, err)
	assert.Nil(t, v)
	v, _ = parent.Get([]byte("drop"))
	assert.Equal(t, []byte("2"), v, "parent must not see buffered delete")

	assert.Equal(t, map[string]string{"keep": "1", "new": "3"}, collect(t, c, ""))
	assert.Equal(t, 2, c.Dirty())

	require.NoError(t, c.Write())
	assert.Equal(t, 0, c.Dirty())
	assert.Equal(t, map[string]string{"keep": "1", "new": "3"}, collect(t, parent, ""))
}

func TestCache_Discard(t *testing.T) {
	parent := NewMemDB()
	c := NewCache(parent)
	require.NoError(t, c.Set([]byte("k"), []byte("v")))
	c.Discard()
	require.NoError(t, c.Write())
	assert.Equal(t, 0, parent.Len())
}

func TestCache_KV(t *testing.T) {
	testKV(t, NewCache(NewMemDB()))
}

func TestPrefixed(t *testing.T) {
	parent := NewMemDB()
	p := NewPrefixed(parent, "round/")
	testKV(t, p)

	v, err := parent.Get([]byte("round/a/2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), v)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("b"), prefixEnd([]byte("a")))
	assert.Equal(t, []byte{0x02}, prefixEnd([]byte{0x01, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff, 0xff}))
	assert.Nil(t, prefixEnd(nil))
}

func TestPGStore(t *testing.T) {
	dsn := os.Getenv("FUNDROUND_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FUNDROUND_TEST_POSTGRES_DSN not set")
	}
	s, err := OpenPostgres(dsn, logrus.StandardLogger())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.db.Exec("DELETE FROM fundround_kv").Error)

	testKV(t, s)

	c := NewCache(s)
	require.NoError(t, c.Set([]byte("batch/1"), []byte("x")))
	require.NoError(t, c.Delete([]byte("a/2")))
	require.NoError(t, c.Write())
	assert.Equal(t, map[string]string{"b/1": "three", "batch/1": "x"}, collect(t, s, ""))
}
