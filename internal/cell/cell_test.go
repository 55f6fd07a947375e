package cell

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedRoundTrip(t *testing.T) {
	require.Equal(t, int32(-123), FromI32(-123).I32())
	require.Equal(t, uint32(123), FromU32(123).U32())
	require.Equal(t, int64(-123456789), FromI64(-123456789).I64())
	require.Equal(t, uint64(123456789), FromU64(123456789).U64())
	require.Equal(t, float32(1.5), FromF32(1.5).F32())
	require.Equal(t, float64(1.5), FromF64(1.5).F64())
	require.True(t, math.IsNaN(float64(FromF32(float32(math.NaN())).F32())))
}

func TestBool(t *testing.T) {
	require.True(t, FromBool(true).Bool())
	require.False(t, FromBool(false).Bool())
	require.True(t, FromI32(1).Bool())
	require.False(t, FromI32(0).Bool())
}

func TestRefNull(t *testing.T) {
	require.True(t, RefNull.IsRefNull())
	require.True(t, Zero.IsRefNull())
	require.False(t, FromU32(1).IsRefNull())
}

func TestPair(t *testing.T) {
	p := Pair{FromU64(1), FromU64(2)}
	require.Equal(t, uint64(1), p.Lo().U64())
	require.Equal(t, uint64(2), p.Hi().U64())
}
