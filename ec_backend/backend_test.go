package ec_backend

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func rsArgs(k, m int, ct ChecksumType) Args {
	return Args{K: k, M: m, W: 32, HD: m, CT: ct}
}

func testData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + 3)
	}
	return data
}

func fragmentsOf(e *Encoded) [][]byte {
	out := make([][]byte, 0, len(e.Data)+len(e.Parity))
	out = append(out, e.Data...)
	out = append(out, e.Parity...)
	return out
}

func TestCreateValidation(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		id   ID
		args Args
		code Code
	}{
		{JerasureRSCauchy, rsArgs(4, 2, ChecksumNone), OK},
		{JerasureRSVand, rsArgs(4, 2, ChecksumCRC32), OK},
		{LibErasureCodeRSVand, rsArgs(4, 2, ChecksumMD5), OK},
		{Null, rsArgs(4, 2, ChecksumNone), EBackendNotSupp},
		{FlatXORHD, rsArgs(4, 2, ChecksumNone), EBackendNotSupp},
		{SHSS, rsArgs(4, 2, ChecksumNone), EBackendNotSupp},
		{ISALRSVand, rsArgs(4, 2, ChecksumNone), EBackendNotAvail},
		{JerasureRSCauchy, rsArgs(0, 2, ChecksumNone), EInvalidParams},
		{JerasureRSCauchy, rsArgs(4, 0, ChecksumNone), EInvalidParams},
		{JerasureRSCauchy, rsArgs(200, 57, ChecksumNone), EInvalidParams},
		{JerasureRSCauchy, Args{K: 4, M: 2, W: 7, HD: 2, CT: ChecksumNone}, EInvalidParams},
		{JerasureRSCauchy, Args{K: 4, M: 2, W: 32, HD: 3, CT: ChecksumNone}, EInvalidParams},
		{JerasureRSCauchy, Args{K: 4, M: 2, W: 32, HD: 2, CT: 9}, EInvalidParams},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%s/%+v", c.id, c.args), func(t *testing.T) {
			desc, code := r.Create(c.id, c.args)
			require.Equal(t, c.code, code)
			if code == OK {
				require.True(t, desc > 0)
				require.Equal(t, OK, r.Destroy(desc))
			}
		})
	}
	require.Equal(t, 0, r.Len())
}

func TestEncodeDecode(t *testing.T) {
	r := NewRegistry()
	desc, code := r.Create(JerasureRSCauchy, rsArgs(4, 2, ChecksumCRC32))
	require.Equal(t, OK, code)

	data := testData(1000)
	enc, code := r.Encode(desc, data)
	require.Equal(t, OK, code)
	require.Len(t, enc.Data, 4)
	require.Len(t, enc.Parity, 2)
	require.Equal(t, uint64(HeaderSize+250), enc.FragmentLen)

	frags := fragmentsOf(enc)
	for i, f := range frags {
		hdr, code := ParseFragmentHeader(f)
		require.Equal(t, OK, code)
		require.Equal(t, uint32(i), hdr.Index)
		require.Equal(t, uint64(1000), hdr.OrigDataSize)
	}

	// drop two data fragments
	dec, code := r.Decode(desc, frags[2:], enc.FragmentLen, true)
	require.Equal(t, OK, code)
	require.Equal(t, data, dec.Data)

	stats, code := r.Stats(desc)
	require.Equal(t, OK, code)
	require.Equal(t, 2, stats.Outstanding)

	require.Equal(t, EBackendInUse, r.Destroy(desc))
	require.Equal(t, OK, r.DecodeCleanup(desc, dec))
	require.Equal(t, OK, r.EncodeCleanup(desc, enc))
	require.Equal(t, EInvalidParams, r.EncodeCleanup(desc, enc))
	require.Equal(t, EInvalidParams, r.DecodeCleanup(desc, dec))
	require.Equal(t, OK, r.Destroy(desc))
	require.Equal(t, EBackendNotAvail, r.Destroy(desc))
}

func TestDecodeInsufficient(t *testing.T) {
	r := NewRegistry()
	desc, _ := r.Create(JerasureRSVand, rsArgs(4, 2, ChecksumNone))
	defer r.Destroy(desc)

	enc, code := r.Encode(desc, testData(64))
	require.Equal(t, OK, code)
	frags := fragmentsOf(enc)
	fragLen := enc.FragmentLen

	_, code = r.Decode(desc, frags[3:], fragLen, false)
	require.Equal(t, EInsuffFrags, code)

	// duplicates do not count twice
	dup := [][]byte{frags[0], frags[0], frags[1], frags[1], frags[2]}
	_, code = r.Decode(desc, dup, fragLen, false)
	require.Equal(t, EInsuffFrags, code)

	_, code = r.Decode(desc, nil, fragLen, false)
	require.Equal(t, EInsuffFrags, code)

	require.Equal(t, OK, r.EncodeCleanup(desc, enc))
	stats, _ := r.Stats(desc)
	require.Equal(t, 0, stats.Outstanding)
}

func TestCorruptFragments(t *testing.T) {
	r := NewRegistry()
	desc, _ := r.Create(JerasureRSCauchy, rsArgs(3, 2, ChecksumMD5))
	defer r.Destroy(desc)

	enc, code := r.Encode(desc, testData(300))
	require.Equal(t, OK, code)
	frags := make([][]byte, 0, 5)
	for _, f := range fragmentsOf(enc) {
		frags = append(frags, append([]byte(nil), f...))
	}
	require.Equal(t, OK, r.EncodeCleanup(desc, enc))
	fragLen := uint64(len(frags[0]))

	payloadBroken := append([]byte(nil), frags[0]...)
	payloadBroken[HeaderSize+5] ^= 0xff
	in := [][]byte{payloadBroken, frags[1], frags[2]}
	_, code = r.Decode(desc, in, fragLen, true)
	require.Equal(t, EBadChksum, code)

	headerBroken := append([]byte(nil), frags[0]...)
	headerBroken[5] ^= 0xff
	in = [][]byte{headerBroken, frags[1], frags[2]}
	_, code = r.Decode(desc, in, fragLen, false)
	require.Equal(t, EBadHeader, code)

	in = [][]byte{frags[0], frags[1][:fragLen-1], frags[2]}
	_, code = r.Decode(desc, in, fragLen, false)
	require.Equal(t, EInvalidParams, code)

	_, code = r.Decode(desc, [][]byte{{1, 2, 3}}, 3, false)
	require.Equal(t, EBadHeader, code)
}

func TestReconstruct(t *testing.T) {
	r := NewRegistry()
	desc, _ := r.Create(JerasureRSCauchy, rsArgs(4, 3, ChecksumCRC32))
	defer r.Destroy(desc)

	enc, code := r.Encode(desc, testData(4099))
	require.Equal(t, OK, code)
	frags := make([][]byte, 0, 7)
	for _, f := range fragmentsOf(enc) {
		frags = append(frags, append([]byte(nil), f...))
	}
	require.Equal(t, OK, r.EncodeCleanup(desc, enc))
	fragLen := uint64(len(frags[0]))

	for index := range frags {
		var available [][]byte
		for i, f := range frags {
			if i != index && len(available) < 4 {
				available = append(available, f)
			}
		}
		out := make([]byte, fragLen)
		require.Equal(t, OK, r.Reconstruct(desc, available, fragLen, index, out))
		require.Equal(t, frags[index], out)
	}

	out := make([]byte, fragLen)
	require.Equal(t, EInvalidParams, r.Reconstruct(desc, frags, fragLen, 7, out))
	require.Equal(t, EInvalidParams, r.Reconstruct(desc, frags, fragLen, 0, out[:10]))
	require.Equal(t, EInsuffFrags, r.Reconstruct(desc, frags[:3], fragLen, 6, out))

	stats, _ := r.Stats(desc)
	require.Equal(t, uint64(7), stats.Reconstruct)
}

func TestUnknownDescriptor(t *testing.T) {
	r := NewRegistry()
	_, code := r.Encode(Desc(42), []byte("x"))
	require.Equal(t, EBackendNotAvail, code)
	_, code = r.Decode(Desc(42), [][]byte{{0}}, 1, false)
	require.Equal(t, EBackendNotAvail, code)
	_, code = r.Stats(Desc(42))
	require.Equal(t, EBackendNotAvail, code)
}

func TestEncodeEmpty(t *testing.T) {
	r := NewRegistry()
	desc, _ := r.Create(JerasureRSCauchy, rsArgs(2, 2, ChecksumNone))
	defer r.Destroy(desc)

	enc, code := r.Encode(desc, nil)
	require.Equal(t, OK, code)
	require.Equal(t, uint64(HeaderSize+1), enc.FragmentLen)
	dec, code := r.Decode(desc, enc.Parity, enc.FragmentLen, false)
	require.Equal(t, OK, code)
	require.Len(t, dec.Data, 0)
	require.Equal(t, OK, r.DecodeCleanup(desc, dec))
	require.Equal(t, OK, r.EncodeCleanup(desc, enc))
}

func TestChecksumTypeMismatch(t *testing.T) {
	r := NewRegistry()
	crcDesc, _ := r.Create(JerasureRSCauchy, rsArgs(3, 2, ChecksumCRC32))
	defer r.Destroy(crcDesc)
	plainDesc, _ := r.Create(JerasureRSCauchy, rsArgs(3, 2, ChecksumNone))
	defer r.Destroy(plainDesc)

	enc, code := r.Encode(crcDesc, testData(90))
	require.Equal(t, OK, code)
	defer r.EncodeCleanup(crcDesc, enc)
	frags := fragmentsOf(enc)

	_, code = r.Decode(plainDesc, frags[:3], enc.FragmentLen, false)
	require.Equal(t, EBadHeader, code)
	out := make([]byte, enc.FragmentLen)
	require.Equal(t, EBadHeader, r.Reconstruct(plainDesc, frags[1:4], enc.FragmentLen, 0, out))

	stats, _ := r.Stats(plainDesc)
	require.Equal(t, 0, stats.Outstanding)
}

func TestShardSizeLimit(t *testing.T) {
	size, code := shardSizeFor(0, 4)
	require.Equal(t, OK, code)
	require.Equal(t, 1, size)

	size, code = shardSizeFor(math.MaxUint32, 1)
	require.Equal(t, OK, code)
	require.Equal(t, math.MaxUint32, size)

	_, code = shardSizeFor(math.MaxUint32+1, 1)
	require.Equal(t, EInvalidParams, code)

	size, code = shardSizeFor(2*math.MaxUint32, 2)
	require.Equal(t, OK, code)
	require.Equal(t, math.MaxUint32, size)
	_, code = shardSizeFor(2*math.MaxUint32+1, 2)
	require.Equal(t, EInvalidParams, code)
}
