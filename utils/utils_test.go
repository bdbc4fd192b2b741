package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCeilDiv(t *testing.T) {
	require.Equal(t, 0, CeilDiv(0, 4))
	require.Equal(t, 1, CeilDiv(1, 4))
	require.Equal(t, 1, CeilDiv(4, 4))
	require.Equal(t, 2, CeilDiv(5, 4))
	require.Panics(t, func() { CeilDiv(1, 0) })
}

func TestMax(t *testing.T) {
	require.Equal(t, 3, Max(1, 3))
	require.Equal(t, 3, Max(3, 1))
}

func TestHumanReadableThroughput(t *testing.T) {
	require.Equal(t, "", HumanReadableThroughput(0))
	require.Equal(t, "512.00B/sec", HumanReadableThroughput(512))
	require.Equal(t, "1.50MB/sec", HumanReadableThroughput(1.5e6))
}

func TestSetRandStringBytes(t *testing.T) {
	data := make([]byte, 128)
	SetRandStringBytes(data)
	for _, c := range data {
		require.True(t, (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'))
	}
}
