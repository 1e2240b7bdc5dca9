package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/astei/anvilregion/region"
)

var errFilenameRequired = errors.New("a filename is required.")

func newApp(stdout, stderr io.Writer) *cli.App {
	log := logrus.New()
	log.Out = stderr
	log.Formatter = &logrus.TextFormatter{DisableTimestamp: true}

	return &cli.App{
		Name:      "anvilregion",
		Usage:     "inspects Anvil region files",
		ArgsUsage: "<file.mca>",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "number of chunks decoded in parallel (0 = one per CPU)",
				EnvVars: []string{"ANVILREGION_WORKERS"},
			},
			&cli.Int64Flag{
				Name:    "max-payload",
				Usage:   "largest decompressed chunk accepted, in bytes",
				Value:   region.DefaultMaxDecompressedSize,
				EnvVars: []string{"ANVILREGION_MAX_PAYLOAD"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug output",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				log.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return inspect(c, log)
		},
		Commands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "list the chunks of a region file",
				ArgsUsage: "<file.mca>",
				Action: func(c *cli.Context) error {
					return inspect(c, log)
				},
			},
			{
				Name:      "chunk",
				Usage:     "print the sections of one chunk",
				ArgsUsage: "<file.mca> <x> <z>",
				Action: func(c *cli.Context) error {
					return showChunk(c, log)
				},
			},
			{
				Name:      "slime",
				Usage:     "export a region file as a Slime v3 world with palette sections (private version 0x83)",
				ArgsUsage: "<file.mca> <out.slime>",
				Action: func(c *cli.Context) error {
					return exportSlime(c, log)
				},
			},
		},
		// errors are reported by run
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	if err := newApp(stdout, stderr).Run(args); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %s\n", err.Error())
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}
