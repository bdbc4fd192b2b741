package utils

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLatency(t *testing.T) {
	ls := NewLatencyStatus(time.Microsecond, time.Second)

	for i := 0; i < 100; i++ {
		require.NoError(t, ls.Record(10*time.Microsecond))
	}
	require.NoError(t, ls.Record(800*time.Microsecond))
	require.Error(t, ls.Record(time.Minute))
	require.Equal(t, int64(101), ls.Count())

	var buf bytes.Buffer
	ret := ls.Percentiles([]float64{50, 95, 100}, &buf)
	require.Equal(t, 10*time.Microsecond, ret[0])
	require.Equal(t, 10*time.Microsecond, ret[1])
	require.InDelta(t, float64(800*time.Microsecond), float64(ret[2]), float64(time.Microsecond))

	var results []Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &results))
	require.NotEmpty(t, results)
}
