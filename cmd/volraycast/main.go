package main

import (
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "volraycast"
	app.Usage = "progressive volume ray casting of image stacks and raw voxel dumps"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "volraycast.yaml",
			Usage: "YAML configuration file; defaults are used when it does not exist",
		},
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}

	volumeFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "dims",
			Usage: "WxHxD size of a raw volume",
		},
		cli.BoolFlag{
			Name:  "rgb",
			Usage: "raw volume holds interleaved RGB voxels",
		},
		cli.Float64Flag{
			Name:  "gap",
			Value: 1,
			Usage: "slice spacing relative to the pixel size",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a single frame",
			Description: `
Load a slice directory or a raw dump (.raw, .raw.zst, .raw.gz), render the
final refinement level with the configured pose and write it as PNG. With
--progressive every level is rendered and reported.`,
			ArgsUsage: "volume",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
				cli.StringFlag{
					Name:  "mode",
					Usage: "override the render mode",
				},
				cli.StringFlag{
					Name:  "transfer",
					Usage: "override the transfer function",
				},
				cli.BoolFlag{
					Name:  "light",
					Usage: "enable shading",
				},
				cli.BoolFlag{
					Name:  "progressive",
					Usage: "render and report every refinement level",
				},
			}, volumeFlags...),
			Action: renderFrame,
		},
		{
			Name:      "slices",
			Usage:     "export orthogonal slice sequences as JPEG",
			ArgsUsage: "volume",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "axis",
					Value: "all",
					Usage: "x, y, z or all",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output directory; defaults to the configured output directory",
				},
			}, volumeFlags...),
			Action: exportSlices,
		},
		{
			Name:      "serve",
			Usage:     "run the websocket preview server",
			ArgsUsage: "volume",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "addr",
					Usage: "listen address; defaults to the configured address",
				},
			}, volumeFlags...),
			Action: serve,
		},
		{
			Name:      "phantom",
			Usage:     "write a synthetic raw volume",
			ArgsUsage: "out.raw[.zst|.gz]",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "kind",
					Value: "sphere",
					Usage: "sphere or ramp",
				},
				cli.IntFlag{
					Name:  "size",
					Value: 64,
					Usage: "edge length in voxels",
				},
			},
			Action: writePhantom,
		},
		{
			Name:   "init-config",
			Usage:  "write the default configuration file",
			Action: initConfig,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
