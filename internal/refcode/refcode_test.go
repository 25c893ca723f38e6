package refcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec, err := New("test-salt")
	require.NoError(t, err)

	for _, id := range []int64{1, 42, 987654321} {
		code, err := codec.Encode(id)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(code), minLength)

		got, err := codec.Decode(code)
		require.NoError(t, err)
		require.Equal(t, id, got)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	codec, err := New("test-salt")
	require.NoError(t, err)

	_, err = codec.Decode("not-a-code!")
	require.Error(t, err)
}

func TestDifferentSaltsProduceDifferentCodes(t *testing.T) {
	a, err := New("salt-a")
	require.NoError(t, err)
	b, err := New("salt-b")
	require.NoError(t, err)

	codeA, err := a.Encode(7)
	require.NoError(t, err)
	codeB, err := b.Encode(7)
	require.NoError(t, err)
	require.NotEqual(t, codeA, codeB)

	// A code minted under one salt must not decode under another.
	_, err = b.Decode(codeA)
	require.Error(t, err)
}
