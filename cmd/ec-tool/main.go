package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash"
	"github.com/journeymidnight/liberasure/ec_backend"
	"github.com/journeymidnight/liberasure/erasure_code"
	"github.com/journeymidnight/liberasure/xlog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"
)

func fragmentPath(dir, name string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%d", name, index))
}

func readFragments(paths []string) ([][]byte, error) {
	if len(paths) == 0 {
		return nil, errors.New("no fragment files given")
	}
	fragments := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, data)
	}
	return fragments, nil
}

func writeOutput(c *cli.Context, data []byte) error {
	path := c.String("out")
	if path == "" || path == "-" {
		_, err := c.App.Writer.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func encode(c *cli.Context) error {
	input := c.Args().First()
	if input == "" {
		return errors.New("encode <file>")
	}
	coder, err := coderFromContext(c)
	if err != nil {
		return err
	}
	defer coder.Close()

	var data []byte
	if input == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return err
	}
	fragments, err := coder.Encode(data)
	if err != nil {
		return err
	}

	dir := c.String("out")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	name := filepath.Base(input)
	if input == "-" {
		name = "stdin"
	}
	for i, f := range fragments {
		p := fragmentPath(dir, name, i)
		if err := os.WriteFile(p, f, 0644); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, p)
	}
	xlog.Logger.Infof("encoded %s (%d bytes) into %d+%d fragments of %d bytes",
		input, len(data), coder.DataFragments(), coder.ParityFragments(), len(fragments[0]))
	return nil
}

func decode(c *cli.Context) error {
	fragments, err := readFragments(c.Args().Slice())
	if err != nil {
		return err
	}
	coder, err := coderForFragments(c, fragments)
	if err != nil {
		return err
	}
	defer coder.Close()

	data, err := coder.Decode(fragments)
	if err != nil {
		return err
	}
	return writeOutput(c, data)
}

func reconstruct(c *cli.Context) error {
	fragments, err := readFragments(c.Args().Slice())
	if err != nil {
		return err
	}
	coder, err := coderForFragments(c, fragments)
	if err != nil {
		return err
	}
	defer coder.Close()

	index := c.Int("index")
	fragment, err := coder.ReconstructFrom(index, fragments)
	if err != nil {
		return err
	}
	return writeOutput(c, fragment)
}

func inspect(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("inspect <fragment>...")
	}
	for _, p := range c.Args().Slice() {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		hdr, code := ec_backend.ParseFragmentHeader(data)
		if code != ec_backend.OK {
			fmt.Fprintf(c.App.Writer, "%s: %v\n", p, erasure_code.FromErrorCode(code))
			continue
		}
		fmt.Fprintf(c.App.Writer, "%s: index=%d size=%d orig=%d backend=%s checksum=%d xxhash=%016x\n",
			p, hdr.Index, hdr.Size, hdr.OrigDataSize, ec_backend.ID(hdr.Backend),
			hdr.ChecksumType, xxhash.Sum64(data[ec_backend.HeaderSize:]))
	}
	return nil
}

func withCoderFlags(flags ...cli.Flag) []cli.Flag {
	return append(append([]cli.Flag{}, coderFlags...), flags...)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "ec-tool"
	app.Usage = "erasure code files into data and parity fragments"
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "log", Value: "stderr", Usage: "log output path"},
		&cli.StringFlag{Name: "level", Value: "info", Usage: "log level"},
	}
	app.Before = func(c *cli.Context) error {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(c.String("level"))); err != nil {
			return err
		}
		xlog.InitLog([]string{c.String("log")}, level)
		return nil
	}
	app.After = func(c *cli.Context) error {
		xlog.Sync()
		return nil
	}
	app.Commands = []*cli.Command{
		{
			Name:  "encode",
			Usage: "encode --k <k> --m <m> --out <dir> <file>",
			Flags: withCoderFlags(
				&cli.StringFlag{Name: "out", Value: ".", Aliases: []string{"o"}},
			),
			Action: encode,
		},
		{
			Name:  "decode",
			Usage: "decode --k <k> --m <m> --out <file> <fragment>...",
			Flags: withCoderFlags(
				&cli.StringFlag{Name: "out", Value: "-", Aliases: []string{"o"}},
			),
			Action: decode,
		},
		{
			Name:  "reconstruct",
			Usage: "reconstruct --index <i> --out <file> <fragment>...",
			Flags: withCoderFlags(
				&cli.IntFlag{Name: "index", Aliases: []string{"i"}, Required: true},
				&cli.StringFlag{Name: "out", Value: "-", Aliases: []string{"o"}},
			),
			Action: reconstruct,
		},
		{
			Name:   "inspect",
			Usage:  "inspect <fragment>...",
			Action: inspect,
		},
		{
			Name:  "bench",
			Usage: "bench --thread <num> --duration <seconds> --size <bytes>",
			Flags: withCoderFlags(
				&cli.IntFlag{Name: "thread", Value: 4, Aliases: []string{"t"}},
				&cli.IntFlag{Name: "duration", Value: 10, Aliases: []string{"d"}},
				&cli.IntFlag{Name: "size", Value: 1 << 20, Aliases: []string{"s"}},
			),
			Action: bench,
		},
	}
	return app
}

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
