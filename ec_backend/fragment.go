package ec_backend

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"hash/crc32"

	"github.com/lunixbochs/struc"
)

const fragmentMagic = 0xb0c5ecc0

// HeaderSize is the number of bytes in front of every fragment payload.
const HeaderSize = 42

// FragmentHeader is the metadata written in front of every fragment.
type FragmentHeader struct {
	Magic            uint32 `struc:"uint32"`
	Index            uint32 `struc:"uint32"`
	Size             uint32 `struc:"uint32"`
	OrigDataSize     uint64 `struc:"uint64"`
	Backend          uint8  `struc:"uint8"`
	ChecksumType     uint8  `struc:"uint8"`
	Checksum         []byte `struc:"[16]byte"`
	MetadataChecksum uint32 `struc:"uint32"`
}

func payloadChecksum(ct ChecksumType, payload []byte) []byte {
	sum := make([]byte, 16)
	switch ct {
	case ChecksumCRC32:
		binary.BigEndian.PutUint32(sum, crc32.ChecksumIEEE(payload))
	case ChecksumMD5:
		d := md5.Sum(payload)
		copy(sum, d[:])
	}
	return sum
}

// writeHeader fills frag[:HeaderSize] for the payload at frag[HeaderSize:].
func writeHeader(frag []byte, index int, origSize uint64, id ID, ct ChecksumType) error {
	payload := frag[HeaderSize:]
	hdr := FragmentHeader{
		Magic:        fragmentMagic,
		Index:        uint32(index),
		Size:         uint32(len(payload)),
		OrigDataSize: origSize,
		Backend:      uint8(id),
		ChecksumType: uint8(ct),
		Checksum:     payloadChecksum(ct, payload),
	}
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	if err := struc.Pack(&buf, &hdr); err != nil {
		return err
	}
	raw := buf.Bytes()
	binary.BigEndian.PutUint32(raw[HeaderSize-4:], crc32.ChecksumIEEE(raw[:HeaderSize-4]))
	copy(frag, raw)
	return nil
}

// ParseFragmentHeader decodes and verifies the header of frag. The payload
// checksum is not verified.
func ParseFragmentHeader(frag []byte) (FragmentHeader, Code) {
	var hdr FragmentHeader
	if len(frag) < HeaderSize {
		return hdr, EBadHeader
	}
	if err := struc.Unpack(bytes.NewReader(frag[:HeaderSize]), &hdr); err != nil {
		return hdr, EBadHeader
	}
	if hdr.Magic != fragmentMagic {
		return hdr, EBadHeader
	}
	if hdr.MetadataChecksum != crc32.ChecksumIEEE(frag[:HeaderSize-4]) {
		return hdr, EBadHeader
	}
	if int(hdr.Size) != len(frag)-HeaderSize {
		return hdr, EBadHeader
	}
	return hdr, OK
}

func verifyPayload(hdr FragmentHeader, payload []byte) bool {
	ct := ChecksumType(hdr.ChecksumType)
	if ct == ChecksumNone {
		return true
	}
	return bytes.Equal(hdr.Checksum, payloadChecksum(ct, payload))
}
