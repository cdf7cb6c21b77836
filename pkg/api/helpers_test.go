package api

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/quible-tx/pkg/encoding"
)

const zeros64 = "0000000000000000000000000000000000000000000000000000000000000000"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := encoding.DecodeHex(s)
	require.NoError(t, err)
	return b
}

func mustHex32(t *testing.T, s string) [32]byte {
	t.Helper()

	b, err := encoding.DecodeHex32(s)
	require.NoError(t, err)
	return b
}

func hexOf(b []byte) string {
	return encoding.EncodeHex(b)
}
