package erasure_code

import "github.com/journeymidnight/liberasure/ec_backend"

// codecBackend is the contract the coder needs from the engine. The facade is
// its only caller; *ec_backend.Registry implements it.
type codecBackend interface {
	Create(id ec_backend.ID, args ec_backend.Args) (ec_backend.Desc, ec_backend.Code)
	Destroy(desc ec_backend.Desc) ec_backend.Code
	Encode(desc ec_backend.Desc, data []byte) (*ec_backend.Encoded, ec_backend.Code)
	EncodeCleanup(desc ec_backend.Desc, encoded *ec_backend.Encoded) ec_backend.Code
	Decode(desc ec_backend.Desc, fragments [][]byte, fragmentLen uint64, forceMetadataChecks bool) (*ec_backend.Decoded, ec_backend.Code)
	DecodeCleanup(desc ec_backend.Desc, decoded *ec_backend.Decoded) ec_backend.Code
	Reconstruct(desc ec_backend.Desc, fragments [][]byte, fragmentLen uint64, index int, out []byte) ec_backend.Code
}

var _ codecBackend = (*ec_backend.Registry)(nil)
