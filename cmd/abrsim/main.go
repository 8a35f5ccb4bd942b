package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "abrsim",
		Usage: "replay a throughput trace through the buffer-based rate adaptation strategy",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "simulate a playback session and print each decision",
				Flags:  runFlags(),
				Action: runSimulation,
			},
			{
				Name:   "variants",
				Usage:  "list the strategy presets",
				Action: listVariants,
			},
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "variant",
			Usage:   "strategy preset: baseline, instantaneous, cumulative or windowed",
			Value:   "baseline",
			EnvVars: []string{"ABR_VARIANT"},
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to a YAML strategy config; overrides --variant",
			EnvVars: []string{"ABR_CONFIG_FILE"},
		},
		&cli.Float64SliceFlag{
			Name:  "trace",
			Usage: "link capacity in bits/s per segment, repeated when shorter than --segments",
			Value: cli.NewFloat64Slice(4e6, 3e6, 1.5e6, 800e3, 800e3, 2e6, 5e6, 6e6),
		},
		&cli.Int64SliceFlag{
			Name:  "ladder",
			Usage: "representation bitrates in bits/s, ascending",
			Value: cli.NewInt64Slice(300_000, 750_000, 1_200_000, 1_850_000, 2_850_000, 4_300_000),
		},
		&cli.IntFlag{
			Name:  "segments",
			Usage: "number of segments to play",
			Value: 120,
		},
		&cli.Float64Flag{
			Name:  "segment-duration",
			Usage: "media seconds per segment",
		},
		&cli.Float64Flag{
			Name:  "max-buffer",
			Usage: "player buffer ceiling in seconds",
			Value: 60,
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			Value:   "warn",
			EnvVars: []string{"LOG_LEVEL"},
		},
	}
}
