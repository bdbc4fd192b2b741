package main

import (
	"os"

	"github.com/journeymidnight/liberasure/ec_backend"
	"github.com/journeymidnight/liberasure/erasure_code"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Profile is a coder configuration stored as YAML:
//
//	data_fragments: 6
//	parity_fragments: 3
//	backend: cauchy
//	checksum: crc32
//	metadata_checks: true
type Profile struct {
	DataFragments   int    `yaml:"data_fragments"`
	ParityFragments int    `yaml:"parity_fragments"`
	Backend         string `yaml:"backend"`
	Checksum        string `yaml:"checksum"`
	MetadataChecks  bool   `yaml:"metadata_checks"`
}

func defaultProfile() *Profile {
	return &Profile{
		DataFragments:   4,
		ParityFragments: 2,
		Backend:         erasure_code.DefaultBackend.String(),
		Checksum:        erasure_code.DefaultChecksum.String(),
	}
}

func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := defaultProfile()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, errors.Wrapf(err, "parse profile %s", path)
	}
	return p, nil
}

// Builder validates the names in the profile and returns a coder builder.
func (p *Profile) Builder() (*erasure_code.Builder, error) {
	backend, err := erasure_code.ParseBackend(p.Backend)
	if err != nil {
		return nil, err
	}
	checksum, err := erasure_code.ParseChecksum(p.Checksum)
	if err != nil {
		return nil, err
	}
	return erasure_code.NewBuilder(p.DataFragments, p.ParityFragments).
		Backend(backend).
		Checksum(checksum).
		MetadataChecks(p.MetadataChecks), nil
}

var coderFlags = []cli.Flag{
	&cli.StringFlag{Name: "config", Usage: "yaml coder profile"},
	&cli.IntFlag{Name: "k", Value: 4, Usage: "number of data fragments"},
	&cli.IntFlag{Name: "m", Value: 2, Usage: "number of parity fragments"},
	&cli.StringFlag{Name: "backend", Value: erasure_code.DefaultBackend.String(), Usage: "cauchy or vandermonde"},
	&cli.StringFlag{Name: "checksum", Value: erasure_code.DefaultChecksum.String(), Usage: "none, crc32 or md5"},
	&cli.BoolFlag{Name: "metadata-checks", Usage: "verify fragment checksums on decode"},
}

// profileFromContext loads --config if given and lets explicit flags
// override it.
func profileFromContext(c *cli.Context) (*Profile, error) {
	p := defaultProfile()
	if path := c.String("config"); path != "" {
		var err error
		if p, err = LoadProfile(path); err != nil {
			return nil, err
		}
	}
	if c.IsSet("k") {
		p.DataFragments = c.Int("k")
	}
	if c.IsSet("m") {
		p.ParityFragments = c.Int("m")
	}
	if c.IsSet("backend") {
		p.Backend = c.String("backend")
	}
	if c.IsSet("checksum") {
		p.Checksum = c.String("checksum")
	}
	if c.IsSet("metadata-checks") {
		p.MetadataChecks = c.Bool("metadata-checks")
	}
	return p, nil
}

// fromHeader fills the backend and checksum that were not given as flags
// from a fragment header.
func (p *Profile) fromHeader(c *cli.Context, hdr ec_backend.FragmentHeader) {
	if !c.IsSet("backend") {
		switch ec_backend.ID(hdr.Backend) {
		case ec_backend.JerasureRSVand:
			p.Backend = erasure_code.BackendVandermondeRS.String()
		case ec_backend.JerasureRSCauchy:
			p.Backend = erasure_code.BackendCauchyRS.String()
		}
	}
	if !c.IsSet("checksum") {
		switch ec_backend.ChecksumType(hdr.ChecksumType) {
		case ec_backend.ChecksumNone:
			p.Checksum = erasure_code.ChecksumNone.String()
		case ec_backend.ChecksumCRC32:
			p.Checksum = erasure_code.ChecksumCRC32.String()
		case ec_backend.ChecksumMD5:
			p.Checksum = erasure_code.ChecksumMD5.String()
		}
	}
}

func buildCoder(p *Profile) (*erasure_code.ErasureCoder, error) {
	b, err := p.Builder()
	if err != nil {
		return nil, err
	}
	return b.Build()
}

func coderFromContext(c *cli.Context) (*erasure_code.ErasureCoder, error) {
	p, err := profileFromContext(c)
	if err != nil {
		return nil, err
	}
	return buildCoder(p)
}

// coderForFragments builds a coder matching the backend and checksum
// recorded in the first fragment. Flags given explicitly take precedence.
func coderForFragments(c *cli.Context, fragments [][]byte) (*erasure_code.ErasureCoder, error) {
	p, err := profileFromContext(c)
	if err != nil {
		return nil, err
	}
	if hdr, code := ec_backend.ParseFragmentHeader(fragments[0]); code == ec_backend.OK {
		p.fromHeader(c, hdr)
	}
	return buildCoder(p)
}
