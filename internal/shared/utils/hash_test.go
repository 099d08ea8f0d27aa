package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherHashString(t *testing.T) {
	h := DefaultHasher()

	a := h.HashString("ema")
	b := h.HashString("ema")
	c := h.HashString("rsi")

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestHashJSONIsKeyOrderIndependent(t *testing.T) {
	h := DefaultHasher()

	first := map[string]interface{}{"period": 14, "source": "close", "offset": 0}
	second := map[string]interface{}{"offset": 0, "source": "close", "period": 14}

	a, err := h.HashJSON(first)
	require.NoError(t, err)
	b, err := h.HashJSON(second)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestHashJSONDistinguishesValues(t *testing.T) {
	h := DefaultHasher()

	a, err := h.HashJSON(map[string]interface{}{"period": 14})
	require.NoError(t, err)
	b, err := h.HashJSON(map[string]interface{}{"period": 20})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestFingerprint(t *testing.T) {
	h := DefaultHasher()

	fp, err := h.Fingerprint(map[string]interface{}{"period": 9})
	require.NoError(t, err)
	assert.Len(t, fp, ShortHashLength)

	full, err := h.HashJSON(map[string]interface{}{"period": 9})
	require.NoError(t, err)
	assert.Equal(t, full[:ShortHashLength], fp)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "abc", Short("abc"))
	assert.Equal(t, "01234567", Short("0123456789abcdef"))
}
